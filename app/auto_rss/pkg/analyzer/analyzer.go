// Package analyzer 把一天的条目切分成固定大小的批次，并发交给 LLM 分类、翻译并提炼亮点。
//
// 每个批次独立重试；重试耗尽时产生确定性的兜底结果（全部条目归入未分类、原文作为译文、无亮点），
// 因此任何批次失败都不会中断整次分析，也不会丢失条目。
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/config"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/llm"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/logger"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/model"
)

var errEmptyCategories = errors.New("response has no categorized items")

// Analyzer 分批分析器
type Analyzer struct {
	client      llm.Client
	batchSize   int
	maxAttempts int
	retryDelay  time.Duration
	maxTokens   int
}

// New 创建分析器，maxTokens 为单个批次请求的输出上限
func New(client llm.Client, cfg config.AnalysisConfig, maxTokens int) *Analyzer {
	a := &Analyzer{
		client:      client,
		batchSize:   cfg.BatchSize,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		maxTokens:   maxTokens,
	}
	if a.batchSize <= 0 {
		a.batchSize = 5
	}
	if a.maxAttempts <= 0 {
		a.maxAttempts = 1
	}
	return a
}

// BatchSize 实际使用的批次大小
func (a *Analyzer) BatchSize() int {
	return a.batchSize
}

// Partition 按顺序切分为连续的批次，最后一批可能不足 size
func Partition(items []model.RawItem, size int) [][]model.RawItem {
	if size <= 0 {
		size = 1
	}
	batches := make([][]model.RawItem, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end])
	}
	return batches
}

// Analyze 所有批次同时发起，全部结束后按批次序号返回结果
func (a *Analyzer) Analyze(ctx context.Context, items []model.RawItem) []*model.BatchResult {
	batches := Partition(items, a.batchSize)
	logger.Log.Infof("共 %d 条内容，分为 %d 个批次进行并发分析", len(items), len(batches))

	results := make([]*model.BatchResult, len(batches))
	var wg sync.WaitGroup
	for i, batch := range batches {
		wg.Add(1)
		go func(i int, batch []model.RawItem) {
			defer wg.Done()
			results[i] = a.AnalyzeBatch(ctx, i, batch)
		}(i, batch)
	}
	wg.Wait()
	return results
}

// AnalyzeBatch 分析单个批次，失败时按固定间隔重试，重试耗尽返回兜底结果。
// index 从 0 开始，日志中的批次号从 1 开始。
func (a *Analyzer) AnalyzeBatch(ctx context.Context, index int, batch []model.RawItem) *model.BatchResult {
	if len(batch) == 0 {
		return &model.BatchResult{Index: index, Categories: model.NewCategories(), Highlights: []string{}}
	}

	num := index + 1
	prompt := buildBatchPrompt(batch)
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		log := logger.Log.WithFields(logrus.Fields{"batch": num, "attempt": attempt})
		log.Infof("批次 %d: 正在分析 %d 条内容... (尝试 %d/%d)", num, len(batch), attempt, a.maxAttempts)

		result, err := a.request(ctx, prompt)
		if err == nil {
			result.Index = index
			log.Infof("批次 %d: 分析完成", num)
			return result
		}
		log.Warnf("批次 %d: 尝试 %d 失败 - %v", num, attempt, err)

		if ctx.Err() != nil {
			break
		}
		if attempt < a.maxAttempts && !sleep(ctx, a.retryDelay) {
			break
		}
	}

	logger.Log.WithField("batch", num).Errorf("批次 %d: 已达最大重试次数，返回默认分类", num)
	return Fallback(index, batch)
}

func (a *Analyzer) request(ctx context.Context, prompt string) (*model.BatchResult, error) {
	text, err := a.client.Complete(ctx, llm.Request{
		System:    batchSystemPrompt,
		User:      prompt,
		MaxTokens: a.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("llm request: %w", err)
	}

	result := &model.BatchResult{Categories: model.NewCategories()}
	if err := llm.ExtractJSON(text, result); err != nil {
		return nil, err
	}
	if result.ItemCount() == 0 {
		return nil, errEmptyCategories
	}
	if result.Highlights == nil {
		result.Highlights = []string{}
	}
	return result, nil
}

// Fallback 重试耗尽时的结果：全部条目归入未分类，原文作为译文，没有亮点
func Fallback(index int, batch []model.RawItem) *model.BatchResult {
	items := make([]model.EnrichedItem, 0, len(batch))
	for _, item := range batch {
		items = append(items, model.Untranslated(item))
	}
	categories := model.NewCategories()
	categories.Set(model.Uncategorized, items)
	return &model.BatchResult{
		Categories: categories,
		Highlights: []string{},
		Index:      index,
		Fallback:   true,
	}
}

// sleep 等待 d，ctx 取消时返回 false
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
