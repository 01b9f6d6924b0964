package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/model"
)

// Result 一次条件请求的结果
type Result struct {
	Body        []byte
	NotModified bool
	Meta        model.FeedMeta // 新的缓存校验值，NotModified 时为空
}

// Fetcher 带 ETag / Last-Modified 的订阅源抓取器
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// New 创建抓取器，timeout 作用于单次请求
func New(timeout time.Duration, userAgent string) *Fetcher {
	return NewWithClient(&http.Client{Timeout: timeout}, userAgent)
}

func NewWithClient(client *http.Client, userAgent string) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{client: client, userAgent: userAgent}
}

// Fetch 使用上次缓存的校验值发起条件请求
func (f *Fetcher) Fetch(ctx context.Context, feedURL string, prev model.FeedMeta) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	if prev.ETag != "" {
		req.Header.Set("If-None-Match", prev.ETag)
	}
	if prev.Modified != "" {
		req.Header.Set("If-Modified-Since", prev.Modified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return &Result{NotModified: true}, nil
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}

	return &Result{
		Body: body,
		Meta: model.FeedMeta{
			ETag:     resp.Header.Get("ETag"),
			Modified: resp.Header.Get("Last-Modified"),
		},
	}, nil
}

// ArticleText 抓取网页并用 readability 提取正文纯文本
func (f *Fetcher) ArticleText(ctx context.Context, link string) (string, error) {
	pageURL, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("invalid link %q: %w", link, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("create request failed: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %s", resp.Status)
	}

	article, err := readability.FromReader(resp.Body, pageURL)
	if err != nil {
		return "", fmt.Errorf("extract content: %w", err)
	}
	return article.TextContent, nil
}
