package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/iWorld-y/auto_rss/app/auto_rss/internal/storage"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/config"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/engine"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/feedstate"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/fetcher"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/ingest"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/ledger"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/llm"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/logger"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/publish"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/render"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/store"
)

// dateOption 需要日期参数的子命令
type dateOption struct {
	Date string `short:"d" long:"date" description:"要处理的日期，格式 YYYY-MM-DD（默认：昨天）"`
}

// resolve 返回参数日期，未指定时为本地时间的昨天
func (o dateOption) resolve(now time.Time) (string, error) {
	if o.Date == "" {
		return now.AddDate(0, 0, -1).Format(time.DateOnly), nil
	}
	if _, err := time.Parse(time.DateOnly, o.Date); err != nil {
		return "", fmt.Errorf("invalid date %q, want YYYY-MM-DD", o.Date)
	}
	return o.Date, nil
}

// setup 加载配置并初始化日志
func setup() (*config.Config, error) {
	cfg, err := config.LoadConfig(opts.Config)
	if err != nil {
		return nil, fmt.Errorf("无法加载配置文件: %w", err)
	}
	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		return nil, fmt.Errorf("无法初始化日志: %w", err)
	}
	return cfg, nil
}

type fetchCommand struct{}

func (c *fetchCommand) Execute(args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	l, err := ledger.Open(cfg.Ledger)
	if err != nil {
		logger.Log.Errorf("打开去重账本失败: %v", err)
		return err
	}
	defer l.Close()

	f := fetcher.New(cfg.Fetch.Timeout, cfg.Fetch.UserAgent)
	in := ingest.Options{
		SourceDir: cfg.Paths.RSSDir,
		Raw:       store.NewRawStore(cfg.Paths.RawDir),
		Ledger:    l,
		State:     feedstate.New(cfg.Paths.StateFile()),
		Fetcher:   f,
	}
	if cfg.Fetch.ExtractContent {
		in.Extractor = f
	}

	report, err := ingest.New(in).Run(ctx)
	if err != nil {
		logger.Log.Errorf("抓取失败: %v", err)
		return err
	}
	logger.Log.Infof("共新增 %d 条", report.Added)
	return nil
}

type analyzeCommand struct {
	dateOption
}

func (c *analyzeCommand) Execute(args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	date, err := c.resolve(time.Now())
	if err != nil {
		logger.Log.Error(err)
		return err
	}
	if err := cfg.Validate(); err != nil {
		logger.Log.Errorf("配置错误: %v", err)
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	client, err := llm.NewChatClient(ctx, cfg.LLM, cfg.Concurrency)
	if err != nil {
		logger.Log.Error(err)
		return err
	}

	var archive engine.Archiver
	if cfg.DB.Host != "" {
		s, err := storage.NewStorage(cfg.DB)
		if err != nil {
			logger.Log.Errorf("无法连接数据库: %v. 将仅生成 JSON 文件。", err)
		} else {
			defer s.Close()
			archive = s
			logger.Log.Info("已成功连接到数据库")
		}
	}

	if _, err := engine.NewEngine(cfg, client, archive).Run(ctx, date); err != nil {
		logger.Log.Errorf("分析失败: %v", err)
		return err
	}
	return nil
}

type renderCommand struct {
	dateOption
	HTML bool `long:"html" description:"同时生成 HTML 页面"`
}

func (c *renderCommand) Execute(args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	date, err := c.resolve(time.Now())
	if err != nil {
		logger.Log.Error(err)
		return err
	}

	summary, err := store.NewSummaryStore(cfg.Paths.SummariesDir()).Load(date)
	if err != nil {
		logger.Log.Errorf("未找到 %s 的每日总结: %v", date, err)
		return err
	}
	logger.Log.Infof("成功加载 %s 的每日总结，共 %d 条", date, summary.TotalItems)

	mdPath := publish.ContentPath(cfg.Paths.PodcastsDir, date)
	if err := store.WriteFileAtomic(mdPath, []byte(render.Markdown(summary))); err != nil {
		logger.Log.Errorf("写入播客素材失败: %v", err)
		return err
	}
	logger.Log.Infof("内容已保存到: %s", mdPath)

	if c.HTML {
		var buf bytes.Buffer
		if err := render.HTML(&buf, summary); err != nil {
			logger.Log.Errorf("渲染 HTML 失败: %v", err)
			return err
		}
		htmlPath := filepath.Join(cfg.Paths.PodcastsDir, date+".html")
		if err := store.WriteFileAtomic(htmlPath, buf.Bytes()); err != nil {
			logger.Log.Errorf("写入 HTML 失败: %v", err)
			return err
		}
		logger.Log.Infof("页面已保存到: %s", htmlPath)
	}
	return nil
}

type publishCommand struct{}

func (c *publishCommand) Execute(args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	if _, err := publish.New(cfg.Paths).Run(); err != nil {
		logger.Log.Errorf("生成静态数据失败: %v", err)
		return err
	}
	logger.Log.Info("静态数据生成完成")
	return nil
}

type statusCommand struct {
	Days int `long:"days" default:"7" description:"检查最近多少天"`
}

func (c *statusCommand) Execute(args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	days := publish.New(cfg.Paths).Recent(time.Now(), c.Days)
	summaries := 0
	for _, d := range days {
		if d.HasSummary {
			summaries++
		}
	}
	if summaries == 0 {
		fmt.Fprintf(os.Stdout, "最近 %d 天没有每日总结\n", c.Days)
		return nil
	}

	fmt.Fprintf(os.Stdout, "最近 %d 天有 %d 个每日总结:\n", c.Days, summaries)
	for _, d := range days {
		if !d.HasSummary {
			continue
		}
		state := "等待生成播客"
		switch {
		case d.HasPodcast:
			state = "播客已生成"
		case d.HasContent:
			state = "播客素材已就绪"
		}
		fmt.Fprintf(os.Stdout, "  %s  %s\n", d.Date, state)
	}
	return nil
}
