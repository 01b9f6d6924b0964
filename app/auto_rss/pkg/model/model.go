package model

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Uncategorized 重试耗尽时的保留分类
const Uncategorized = "未分类"

// RawItem 单条订阅源条目，落盘后不再修改
type RawItem struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Link       string   `json:"link"`
	Summary    string   `json:"summary"`
	Published  string   `json:"published"`
	Authors    []string `json:"authors,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Updated    string   `json:"updated,omitempty"`
	PDFLink    string   `json:"pdf_link,omitempty"`
}

// EnrichedItem LLM 翻译后的条目
type EnrichedItem struct {
	RawItem
	TitleZh   string `json:"title_zh"`
	SummaryZh string `json:"summary_zh"`
}

// Untranslated 原文直接作为译文
func Untranslated(item RawItem) EnrichedItem {
	return EnrichedItem{
		RawItem:   item,
		TitleZh:   item.Title,
		SummaryZh: item.Summary,
	}
}

// Categories 分类 -> 条目列表，保持插入顺序
type Categories = orderedmap.OrderedMap[string, []EnrichedItem]

// NewCategories 创建空分类表
func NewCategories() *Categories {
	return orderedmap.New[string, []EnrichedItem]()
}

// CategorySummaries 分类 -> 分类总结，保持插入顺序
type CategorySummaries = orderedmap.OrderedMap[string, string]

// NewCategorySummaries 创建空分类总结表
func NewCategorySummaries() *CategorySummaries {
	return orderedmap.New[string, string]()
}

// BatchResult 单个批次的分析结果，仅存在于内存
type BatchResult struct {
	Categories *Categories `json:"categories"`
	Highlights []string    `json:"highlights"`

	Index    int  `json:"-"` // 批次序号，从 0 开始
	Fallback bool `json:"-"` // 是否为重试耗尽后的兜底结果
}

// ItemCount 批次内分类后的条目总数
func (r *BatchResult) ItemCount() int {
	if r == nil || r.Categories == nil {
		return 0
	}
	n := 0
	for pair := r.Categories.Oldest(); pair != nil; pair = pair.Next() {
		n += len(pair.Value)
	}
	return n
}

// DailySummary 某一天的合并结果
type DailySummary struct {
	Date              string             `json:"date"`
	TotalItems        int                `json:"total_items"`
	Categories        *Categories        `json:"categories"`
	CategorySummaries *CategorySummaries `json:"category_summaries"`
	Highlights        []string           `json:"highlights"`
	DailySummary      string             `json:"daily_summary"`
}

// CategoryNames 分类名，按出现顺序
func (s *DailySummary) CategoryNames() []string {
	if s == nil || s.Categories == nil {
		return []string{}
	}
	names := make([]string, 0, s.Categories.Len())
	for pair := s.Categories.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// IndexEntry 静态站点索引条目
type IndexEntry struct {
	Date            string   `json:"date"`
	TotalItems      int      `json:"total_items"`
	Categories      []string `json:"categories"`
	HighlightsCount int      `json:"highlights_count"`
	DailySummary    string   `json:"daily_summary"`
	HasPodcast      bool     `json:"has_podcast"`
}

// FeedMeta 条件请求缓存
type FeedMeta struct {
	ETag     string `json:"etag"`
	Modified string `json:"modified"`
}

// FeedState 订阅源 URL -> 缓存
type FeedState map[string]FeedMeta
