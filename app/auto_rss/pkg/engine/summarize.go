package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/llm"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/logger"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/model"
)

// EmptyDailyText 当天没有任何条目时的每日总结
const EmptyDailyText = "今日无新内容"

const summarySystemPrompt = "你是一个专业的AI研究动态总结助手，精通分析AI领域的研究趋势和前沿进展。请以JSON格式返回结果。"

const summaryPromptTpl = `基于今天收集的%d条AI领域论文与资讯，已按研究方向分为%d个类别：
%s

请生成：
1. 每个研究方向的总结（100-150字，概括该方向的主要研究趋势和亮点）
2. 整体的每日AI研究动态总结（2-3段，200-300字，突出当日AI领域的研究热点、创新突破和发展趋势）

返回JSON格式：
{
    "category_summaries": {
        "研究方向": "该方向的总结"
    },
    "daily_summary": "今日AI研究动态总结（2-3段）"
}
`

// rollup 汇总请求的返回格式
type rollup struct {
	CategorySummaries *model.CategorySummaries `json:"category_summaries"`
	DailySummary      string                   `json:"daily_summary"`
}

// CategoryFallback 分类总结的模板文本
func CategoryFallback(category string, count int) string {
	return fmt.Sprintf("今日%s方向共有%d条内容", category, count)
}

// DailyFallback 每日总结的模板文本
func DailyFallback(total, categories int) string {
	return fmt.Sprintf("今日共收集%d条内容，涵盖%d个分类。", total, categories)
}

// FallbackSummaries 汇总请求失败时使用的模板总结
func FallbackSummaries(categories *model.Categories, total int) (*model.CategorySummaries, string) {
	summaries := model.NewCategorySummaries()
	for pair := categories.Oldest(); pair != nil; pair = pair.Next() {
		summaries.Set(pair.Key, CategoryFallback(pair.Key, len(pair.Value)))
	}
	return summaries, DailyFallback(total, categories.Len())
}

// Summarize 只把分类名和总数交给模型，生成分类总结和每日总结；失败时退回模板文本，不返回错误
func (e *Engine) Summarize(ctx context.Context, categories *model.Categories, total int) (*model.CategorySummaries, string) {
	names := make([]string, 0, categories.Len())
	for pair := categories.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}

	logger.Log.Info("正在生成整体总结...")
	text, err := e.client.Complete(ctx, llm.Request{
		System:    summarySystemPrompt,
		User:      fmt.Sprintf(summaryPromptTpl, total, len(names), strings.Join(names, ", ")),
		MaxTokens: e.summaryMaxTokens,
	})
	if err != nil {
		logger.Log.Warnf("总结生成失败: %v，使用默认总结", err)
		return FallbackSummaries(categories, total)
	}

	resp := rollup{CategorySummaries: model.NewCategorySummaries()}
	if err := llm.ExtractJSON(text, &resp); err != nil {
		logger.Log.Warnf("总结解析失败: %v，使用默认总结", err)
		return FallbackSummaries(categories, total)
	}

	summaries := resp.CategorySummaries
	if summaries == nil {
		summaries = model.NewCategorySummaries()
	}
	// 模型漏掉的分类用模板补齐
	for pair := categories.Oldest(); pair != nil; pair = pair.Next() {
		if s, ok := summaries.Get(pair.Key); !ok || strings.TrimSpace(s) == "" {
			summaries.Set(pair.Key, CategoryFallback(pair.Key, len(pair.Value)))
		}
	}

	daily := strings.TrimSpace(resp.DailySummary)
	if daily == "" {
		daily = DailyFallback(total, categories.Len())
	}
	logger.Log.Info("整体总结生成完成")
	return summaries, daily
}
