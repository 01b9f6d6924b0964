package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/feedstate"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/fetcher"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/ledger"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/logger"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/model"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/source"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/store"
)

// maxExtractedLen 正文提取结果的最大长度（字符）
const maxExtractedLen = 5000

// Fetcher 条件请求抓取接口
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string, prev model.FeedMeta) (*fetcher.Result, error)
}

// ArticleExtractor 从原文链接提取正文
type ArticleExtractor interface {
	ArticleText(ctx context.Context, link string) (string, error)
}

// Options 构造 Ingester 所需的依赖
type Options struct {
	SourceDir string
	Raw       *store.RawStore
	Ledger    ledger.Ledger
	State     *feedstate.File
	Fetcher   Fetcher
	Extractor ArticleExtractor // 为空时不提取正文
	Now       func() time.Time
}

// Report 一次抓取的统计
type Report struct {
	Sources     int // 处理的订阅源数（OPML 中每个 URL 单独计数）
	Failed      int
	NotModified int
	Added       int
}

// Ingester 订阅源抓取入库
type Ingester struct {
	opts   Options
	parser *gofeed.Parser
}

func New(opts Options) *Ingester {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Ingester{opts: opts, parser: gofeed.NewParser()}
}

// run 单次运行的状态
type run struct {
	state    model.FeedState
	seen     map[string]struct{}
	accepted []string
	now      time.Time
	report   Report
}

// Run 处理 SourceDir 下的所有订阅源。
// 单个源失败只记录日志；新指纹在全部处理完后统一写入账本，订阅源缓存在每次收到响应后立即保存。
func (in *Ingester) Run(ctx context.Context) (*Report, error) {
	sources, err := source.List(in.opts.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	if len(sources) == 0 {
		logger.Log.Warnf("订阅源目录 [%s] 下没有 *.xml 文件", in.opts.SourceDir)
	}

	r := &run{
		state: in.opts.State.Load(),
		seen:  map[string]struct{}{},
		now:   in.opts.Now(),
	}

	var runErr error
loop:
	for _, src := range sources {
		logger.Log.Infof("处理订阅源: %s (%s)", src.Path, src.Kind)
		switch src.Kind {
		case source.KindURL, source.KindOPML:
			for _, u := range src.URLs {
				if err := ctx.Err(); err != nil {
					runErr = err
					break loop
				}
				in.ingestURL(ctx, r, u)
			}
		default:
			r.report.Sources++
			feed, err := in.parser.ParseString(src.Body)
			if err != nil {
				logger.Log.Errorf("解析订阅源文件失败 [%s]: %v", src.Path, err)
				r.report.Failed++
				continue
			}
			added := in.ingestFeed(ctx, r, feed)
			logger.Log.Infof("从 %s 新增 %d 条", src.Path, added)
		}
	}

	if len(r.accepted) > 0 {
		if err := in.opts.Ledger.Record(r.accepted); err != nil {
			return &r.report, fmt.Errorf("record ledger: %w", err)
		}
	}
	logger.Log.Infof("抓取完成: 订阅源 %d 个，失败 %d 个，未更新 %d 个，新增 %d 条",
		r.report.Sources, r.report.Failed, r.report.NotModified, r.report.Added)
	return &r.report, runErr
}

func (in *Ingester) ingestURL(ctx context.Context, r *run, feedURL string) {
	r.report.Sources++
	res, err := in.opts.Fetcher.Fetch(ctx, feedURL, r.state[feedURL])
	if err != nil {
		logger.Log.Errorf("抓取订阅源失败 [%s]: %v", feedURL, err)
		r.report.Failed++
		return
	}
	if res.NotModified {
		logger.Log.Infof("订阅源未更新 [%s]", feedURL)
		r.report.NotModified++
		return
	}

	// 只要服务端返回了内容就更新校验值，与正文能否解析无关
	r.state[feedURL] = res.Meta
	if err := in.opts.State.Save(r.state); err != nil {
		logger.Log.Errorf("保存订阅源状态失败: %v", err)
	}

	feed, err := in.parser.ParseString(string(res.Body))
	if err != nil {
		logger.Log.Errorf("解析订阅源失败 [%s]: %v", feedURL, err)
		r.report.Failed++
		return
	}
	added := in.ingestFeed(ctx, r, feed)
	logger.Log.Infof("从 %s 新增 %d 条", feedURL, added)
}

// ingestFeed 写入新条目，返回新增数量
func (in *Ingester) ingestFeed(ctx context.Context, r *run, feed *gofeed.Feed) int {
	added := 0
	for _, entry := range feed.Items {
		if entry == nil {
			continue
		}
		item := toRawItem(entry)
		fp := Fingerprint(item)
		if _, ok := r.seen[fp]; ok || in.opts.Ledger.IsKnown(fp) {
			continue
		}
		r.seen[fp] = struct{}{}

		if item.Summary == "" && item.Link != "" && in.opts.Extractor != nil {
			text, err := in.opts.Extractor.ArticleText(ctx, item.Link)
			if err != nil {
				logger.Log.Warnf("提取正文失败 [%s]: %v", item.Link, err)
			} else {
				item.Summary = truncate(strings.TrimSpace(text), maxExtractedLen)
			}
		}

		bucket := ResolveBucket(item.Published, r.now)
		if err := in.opts.Raw.Put(bucket, fp, item); err != nil {
			logger.Log.Errorf("写入条目失败 [%s]: %v", in.opts.Raw.Path(bucket, fp), err)
			delete(r.seen, fp)
			continue
		}
		r.accepted = append(r.accepted, fp)
		added++
	}
	r.report.Added += added
	return added
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
