package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/model"
)

func sampleSummary() *model.DailySummary {
	categories := model.NewCategories()
	categories.Set("大语言模型", []model.EnrichedItem{
		{
			RawItem:   model.RawItem{Title: "Scaling Laws", Link: "https://arxiv.org/abs/1", Published: "2024-01-01", Summary: "orig"},
			TitleZh:   "缩放定律",
			SummaryZh: "关于缩放定律的研究",
		},
		{
			RawItem: model.RawItem{Title: "No Translation", Link: "https://arxiv.org/abs/2", Summary: "plain <b>summary</b>"},
		},
	})
	categories.Set("空分类", nil)

	summaries := model.NewCategorySummaries()
	summaries.Set("大语言模型", "LLM 方向进展显著")

	return &model.DailySummary{
		Date:              "2024-01-02",
		TotalItems:        2,
		Categories:        categories,
		CategorySummaries: summaries,
		Highlights:        []string{"亮点一"},
		DailySummary:      "今天的 **重点** 是缩放定律。",
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleSummary())

	wants := []string{
		"# 2024-01-02 每日科技资讯播客\n",
		"今日共收集 2 条资讯，涵盖以下领域：大语言模型、空分类\n",
		"## 分类概览\n\n### 大语言模型\nLLM 方向进展显著\n",
		"### 大语言模型 (2条)\n",
		"1. **缩放定律**\n   - 来源：https://arxiv.org/abs/1\n   - 发布时间：2024-01-01\n   - 摘要：关于缩放定律的研究\n",
		"2. **No Translation**\n",
		"   - 摘要：plain <b>summary</b>\n",
	}
	for _, w := range wants {
		if !strings.Contains(md, w) {
			t.Errorf("Markdown() missing %q\n%s", w, md)
		}
	}
	if strings.Contains(md, "### 空分类 (") {
		t.Error("empty category should be skipped in details")
	}
	if strings.Index(md, "## 分类概览") > strings.Index(md, "## 详细资讯") {
		t.Error("overview should come before details")
	}
}

func TestMarkdown_EmptyDay(t *testing.T) {
	md := Markdown(&model.DailySummary{Date: "2024-01-02", DailySummary: "今日无新内容"})
	if !strings.HasPrefix(md, "# 2024-01-02 每日科技资讯播客") || !strings.Contains(md, "今日无新内容") {
		t.Errorf("Markdown() = %q", md)
	}
	if strings.Contains(md, "## 分类概览") {
		t.Error("no category overview expected")
	}
}

func TestHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := HTML(&buf, sampleSummary()); err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	page := buf.String()

	for _, w := range []string{
		"<title>每日科技资讯 | 2024-01-02</title>",
		`<a href="https://arxiv.org/abs/1" target="_blank">缩放定律</a>`,
		`<div class="item-meta">Scaling Laws</div>`,
		"LLM 方向进展显著",
		"<li>亮点一</li>",
		"plain &lt;b&gt;summary&lt;/b&gt;",
	} {
		if !strings.Contains(page, w) {
			t.Errorf("HTML() missing %q", w)
		}
	}
}
