// Package render 把每日总结渲染为播客生成用的 Markdown 和可直接浏览的 HTML 页面。
package render

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/model"
)

// Markdown 播客素材：概览、分类总结、按分类编号的详细条目
func Markdown(s *model.DailySummary) string {
	parts := []string{
		fmt.Sprintf("# %s 每日科技资讯播客", cmp.Or(s.Date, "Unknown")),
		fmt.Sprintf("\n## 概览\n今日共收集 %d 条资讯，涵盖以下领域：%s\n",
			s.TotalItems, strings.Join(s.CategoryNames(), "、")),
	}

	if s.CategorySummaries != nil && s.CategorySummaries.Len() > 0 {
		parts = append(parts, "\n## 分类概览\n")
		for pair := s.CategorySummaries.Oldest(); pair != nil; pair = pair.Next() {
			parts = append(parts, fmt.Sprintf("### %s\n%s\n", pair.Key, pair.Value))
		}
	}

	if s.DailySummary != "" {
		parts = append(parts, fmt.Sprintf("\n## 今日总结\n%s\n", s.DailySummary))
	}

	parts = append(parts, "\n## 详细资讯\n")
	if s.Categories != nil {
		for pair := s.Categories.Oldest(); pair != nil; pair = pair.Next() {
			if len(pair.Value) == 0 {
				continue
			}
			parts = append(parts, fmt.Sprintf("\n### %s (%d条)\n", pair.Key, len(pair.Value)))
			for i, item := range pair.Value {
				parts = append(parts, fmt.Sprintf("\n%d. **%s**\n   - 来源：%s\n   - 发布时间：%s\n   - 摘要：%s\n",
					i+1,
					cmp.Or(item.TitleZh, item.Title, "N/A"),
					item.Link,
					item.Published,
					cmp.Or(item.SummaryZh, item.Summary, "N/A"),
				))
			}
		}
	}

	return strings.Join(parts, "\n")
}
