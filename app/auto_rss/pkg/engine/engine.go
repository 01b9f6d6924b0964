package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/analyzer"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/config"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/llm"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/logger"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/model"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/store"
)

// ErrNoItems 指定日期没有可分析的条目
var ErrNoItems = errors.New("no raw items found")

// Archiver 每日总结的额外归档（例如数据库）
type Archiver interface {
	SaveDailySummary(ctx context.Context, summary *model.DailySummary) error
}

// Engine 核心处理引擎：加载当天条目、分批分析、合并、汇总、落盘
type Engine struct {
	raw       *store.RawStore
	summaries *store.SummaryStore
	client    llm.Client
	analyzer  *analyzer.Analyzer
	archive   Archiver

	highlightsLimit  int
	summaryMaxTokens int
}

// NewEngine 创建引擎实例，archive 可以为空
func NewEngine(cfg *config.Config, client llm.Client, archive Archiver) *Engine {
	return &Engine{
		raw:              store.NewRawStore(cfg.Paths.RawDir),
		summaries:        store.NewSummaryStore(cfg.Paths.SummariesDir()),
		client:           client,
		analyzer:         analyzer.New(client, cfg.Analysis, cfg.LLM.MaxTokens),
		archive:          archive,
		highlightsLimit:  cfg.Analysis.HighlightsLimit,
		summaryMaxTokens: cfg.LLM.SummaryMaxTokens,
	}
}

// Run 分析指定日期并覆盖写入当天的总结文件
func (e *Engine) Run(ctx context.Context, date string) (*model.DailySummary, error) {
	logger.Log.Infof("正在分析日期: %s", date)

	items, err := e.raw.Load(date)
	if err != nil {
		return nil, err
	}
	logger.Log.Infof("找到 %d 条内容", len(items))
	if len(items) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoItems, date)
	}

	summary := e.Build(ctx, date, items)
	// 中途取消时保留上一次的结果文件
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := e.summaries.Save(summary); err != nil {
		return nil, fmt.Errorf("save summary: %w", err)
	}
	logger.Log.Infof("总结已保存到: %s", e.summaries.Path(date))

	if e.archive != nil {
		if err := e.archive.SaveDailySummary(ctx, summary); err != nil {
			logger.Log.Errorf("归档每日总结失败: %v", err)
		}
	}

	logger.Log.Infof("分析完成！总条目数: %d，分类数: %d，亮点数: %d",
		summary.TotalItems, summary.Categories.Len(), len(summary.Highlights))
	return summary, nil
}

// Build 对给定条目执行分批分析、合并与汇总，不做任何写入
func (e *Engine) Build(ctx context.Context, date string, items []model.RawItem) *model.DailySummary {
	if len(items) == 0 {
		return &model.DailySummary{
			Date:              date,
			TotalItems:        0,
			Categories:        model.NewCategories(),
			CategorySummaries: model.NewCategorySummaries(),
			Highlights:        []string{},
			DailySummary:      EmptyDailyText,
		}
	}

	results := e.analyzer.Analyze(ctx, items)
	fallbacks := 0
	for _, r := range results {
		if r.Fallback {
			fallbacks++
		}
	}
	if fallbacks > 0 {
		logger.Log.Warnf("%d/%d 个批次使用了默认分类", fallbacks, len(results))
	}

	categories, highlights := analyzer.Merge(results, e.highlightsLimit)
	categorySummaries, daily := e.Summarize(ctx, categories, len(items))

	return &model.DailySummary{
		Date:              date,
		TotalItems:        len(items),
		Categories:        categories,
		CategorySummaries: categorySummaries,
		Highlights:        highlights,
		DailySummary:      daily,
	}
}
