package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/feedstate"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/fetcher"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/ledger"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/model"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/store"
)

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Test Feed</title>
  <link>https://example.com</link>
  <description>test</description>
  <item>
    <title>Zoned Item</title>
    <link>https://example.com/1</link>
    <guid>item-1</guid>
    <pubDate>Mon, 03 Jul 2023 23:30:00 -0500</pubDate>
    <description>first</description>
  </item>
  <item>
    <title>Naive Item</title>
    <link>https://example.com/2</link>
    <pubDate>2023-07-05 10:00:00</pubDate>
    <description>second</description>
  </item>
  <item>
    <title>Garbled Date</title>
    <link>https://example.com/3</link>
    <pubDate>sometime soon</pubDate>
    <description>third</description>
    <enclosure url="https://arxiv.org/pdf/2401.00001" type="application/pdf" length="0"/>
  </item>
  <item>
    <title>Zoned Item Again</title>
    <link>https://example.com/1</link>
    <guid>item-1</guid>
    <pubDate>Mon, 03 Jul 2023 23:30:00 -0500</pubDate>
    <description>duplicate inside the same feed</description>
  </item>
</channel>
</rss>`

const testAtom = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>arXiv</title>
  <id>urn:feed</id>
  <updated>2024-01-02T00:00:00Z</updated>
  <entry>
    <id>http://arxiv.org/abs/2401.00001v1</id>
    <title>Attention Again</title>
    <link href="http://arxiv.org/abs/2401.00001v1" rel="alternate"/>
    <published>2024-01-01T20:00:00-08:00</published>
    <updated>2024-01-01T20:00:00-08:00</updated>
    <summary>We revisit attention.</summary>
    <author><name>Alice</name></author>
    <author><name>Bob</name></author>
    <category term="cs.AI"/>
  </entry>
</feed>`

var fixedNow = time.Date(2024, 1, 2, 12, 0, 0, 0, time.Local)

type env struct {
	dir    string
	raw    *store.RawStore
	state  *feedstate.File
	ledger string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "rss"), 0o755); err != nil {
		t.Fatal(err)
	}
	return &env{
		dir:    dir,
		raw:    store.NewRawStore(filepath.Join(dir, "raw")),
		state:  feedstate.New(filepath.Join(dir, "feed_state.json")),
		ledger: filepath.Join(dir, "rss_history.txt"),
	}
}

func (e *env) writeSource(t *testing.T, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(e.dir, "rss", name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func (e *env) run(t *testing.T) *Report {
	t.Helper()
	l, err := ledger.OpenFile(e.ledger)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer l.Close()

	in := New(Options{
		SourceDir: filepath.Join(e.dir, "rss"),
		Raw:       e.raw,
		Ledger:    l,
		State:     e.state,
		Fetcher:   fetcher.New(5*time.Second, "test"),
		Now:       func() time.Time { return fixedNow },
	})
	report, err := in.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return report
}

func countItems(t *testing.T, raw *store.RawStore) int {
	t.Helper()
	dates, err := raw.Dates()
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for _, d := range dates {
		items, err := raw.Load(d)
		if err != nil {
			t.Fatal(err)
		}
		n += len(items)
	}
	return n
}

func TestFingerprint(t *testing.T) {
	hash := func(s string) string {
		sum := sha256.Sum256([]byte(s))
		return hex.EncodeToString(sum[:])
	}

	tests := []struct {
		name string
		item model.RawItem
		want string
	}{
		{"id wins", model.RawItem{ID: "id-1", Link: "https://a", Title: "t"}, hash("id-1")},
		{"link when no id", model.RawItem{Link: "https://a", Title: "t"}, hash("https://a")},
		{"title and published", model.RawItem{Title: "t", Published: "2024-01-01"}, hash("t2024-01-01")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fingerprint(tt.item); got != tt.want {
				t.Errorf("Fingerprint() = %s, want %s", got, tt.want)
			}
		})
	}

	a := model.RawItem{ID: "x", Title: "one", Summary: "s1"}
	b := model.RawItem{Summary: "s2", Title: "two", ID: "x"}
	if Fingerprint(a) != Fingerprint(b) {
		t.Error("fingerprint should only depend on the identity field")
	}
}

func TestResolveBucket(t *testing.T) {
	tests := []struct {
		published string
		want      string
	}{
		{"Mon, 03 Jul 2023 23:30:00 -0500", "2023-07-04"},
		{"2024-01-01T20:00:00-08:00", "2024-01-02"},
		{"2023-07-05T01:00:00Z", "2023-07-05"},
		{"2023-07-05 23:59:00", "2023-07-05"},
		{"2023-07-05", "2023-07-05"},
		{"sometime soon", "2024-01-02"},
		{"hello, world", "2024-01-02"},
		{"a,b", "2024-01-02"},
		{"12/31", "2024-01-02"},
		{"n/a", "2024-01-02"},
		{"", "2024-01-02"},
	}
	for _, tt := range tests {
		t.Run(tt.published, func(t *testing.T) {
			if got := ResolveBucket(tt.published, fixedNow); got != tt.want {
				t.Errorf("ResolveBucket(%q) = %s, want %s", tt.published, got, tt.want)
			}
		})
	}
}

func TestIngester_IdempotentAcrossRuns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testRSS))
	}))
	defer srv.Close()

	e := newEnv(t)
	e.writeSource(t, "feed.xml", srv.URL+"\n")

	first := e.run(t)
	if first.Added != 3 {
		t.Fatalf("first run Added = %d, want 3", first.Added)
	}

	second := e.run(t)
	if second.Added != 0 {
		t.Errorf("second run Added = %d, want 0", second.Added)
	}
	if n := countItems(t, e.raw); n != 3 {
		t.Errorf("raw items = %d, want 3", n)
	}

	zoned, err := e.raw.Load("2023-07-04")
	if err != nil || len(zoned) != 1 || zoned[0].ID != "item-1" {
		t.Errorf("2023-07-04 bucket = %+v, %v", zoned, err)
	}
	naive, _ := e.raw.Load("2023-07-05")
	if len(naive) != 1 || naive[0].Title != "Naive Item" {
		t.Errorf("2023-07-05 bucket = %+v", naive)
	}
	today, _ := e.raw.Load("2024-01-02")
	if len(today) != 1 || today[0].Title != "Garbled Date" {
		t.Fatalf("fallback bucket = %+v", today)
	}
	if today[0].PDFLink != "https://arxiv.org/pdf/2401.00001" {
		t.Errorf("PDFLink = %q", today[0].PDFLink)
	}
}

func TestIngester_NotModifiedKeepsState(t *testing.T) {
	const etag = `"v1"`
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
		w.Write([]byte(testRSS))
	}))
	defer srv.Close()

	e := newEnv(t)
	e.writeSource(t, "feed.xml", srv.URL)

	e.run(t)
	if got := e.state.Load()[srv.URL]; got.ETag != etag {
		t.Fatalf("state after first run = %+v", got)
	}

	report := e.run(t)
	if report.NotModified != 1 || report.Added != 0 {
		t.Errorf("second run report = %+v", report)
	}
	if got := e.state.Load()[srv.URL]; got.ETag != etag {
		t.Errorf("state after 304 = %+v, want unchanged", got)
	}
	if hits != 2 {
		t.Errorf("server hits = %d, want 2", hits)
	}
}

func TestIngester_OPMLSkipsFailedSource(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testRSS))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	e := newEnv(t)
	e.writeSource(t, "bundle.xml", fmt.Sprintf(`<?xml version="1.0"?>
<opml version="1.0">
  <body>
    <outline text="broken" xmlUrl="%s/broken"/>
    <outline text="ok" xmlUrl="%s/ok"/>
  </body>
</opml>`, srv.URL, srv.URL))

	report := e.run(t)
	if report.Sources != 2 || report.Failed != 1 || report.Added != 3 {
		t.Errorf("report = %+v", report)
	}
	if _, ok := e.state.Load()[srv.URL+"/broken"]; ok {
		t.Error("failed source should not be cached")
	}
}

func TestIngester_UnparsableBodyStillCachesValidators(t *testing.T) {
	const etag = `"broken-v1"`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", etag)
		w.Header().Set("Last-Modified", "Tue, 02 Jan 2024 08:00:00 GMT")
		w.Write([]byte("this is not a feed"))
	}))
	defer srv.Close()

	e := newEnv(t)
	e.writeSource(t, "feed.xml", srv.URL)

	report := e.run(t)
	if report.Failed != 1 || report.Added != 0 {
		t.Errorf("report = %+v", report)
	}
	got := e.state.Load()[srv.URL]
	if got.ETag != etag || got.Modified != "Tue, 02 Jan 2024 08:00:00 GMT" {
		t.Errorf("state = %+v, want validators from the response", got)
	}
}

func TestIngester_LiteralFeed(t *testing.T) {
	e := newEnv(t)
	e.writeSource(t, "arxiv.xml", testAtom)

	report := e.run(t)
	if report.Added != 1 {
		t.Fatalf("Added = %d, want 1", report.Added)
	}

	items, err := e.raw.Load("2024-01-02")
	if err != nil || len(items) != 1 {
		t.Fatalf("Load() = %v, %v", items, err)
	}
	got := items[0]
	if got.ID != "http://arxiv.org/abs/2401.00001v1" || got.Summary != "We revisit attention." {
		t.Errorf("item = %+v", got)
	}
	if len(got.Authors) != 2 || got.Authors[0] != "Alice" {
		t.Errorf("Authors = %v", got.Authors)
	}
	if len(got.Categories) != 1 || got.Categories[0] != "cs.AI" {
		t.Errorf("Categories = %v", got.Categories)
	}

	data, err := os.ReadFile(e.ledger)
	if err != nil {
		t.Fatal(err)
	}
	if want := Fingerprint(got) + "\n"; string(data) != want {
		t.Errorf("ledger = %q, want %q", data, want)
	}
}
