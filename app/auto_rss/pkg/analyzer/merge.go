package analyzer

import (
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/model"
)

// Merge 按批次顺序合并分类与亮点。
// 同名分类的条目按批次顺序拼接；亮点按批次顺序拼接后只保留前 limit 条。
func Merge(results []*model.BatchResult, limit int) (*model.Categories, []string) {
	merged := model.NewCategories()
	highlights := []string{}

	for _, r := range results {
		if r == nil {
			continue
		}
		if r.Categories != nil {
			for pair := r.Categories.Oldest(); pair != nil; pair = pair.Next() {
				existing, _ := merged.Get(pair.Key)
				merged.Set(pair.Key, append(existing, pair.Value...))
			}
		}
		highlights = append(highlights, r.Highlights...)
	}

	if limit >= 0 && len(highlights) > limit {
		highlights = highlights[:limit]
	}
	return merged, highlights
}
