package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/model"
)

// SummaryStore 每日总结存储
type SummaryStore struct {
	dir string
}

func NewSummaryStore(dir string) *SummaryStore {
	return &SummaryStore{dir: dir}
}

// Path 某天总结文件路径
func (s *SummaryStore) Path(date string) string {
	return filepath.Join(s.dir, date+".json")
}

// Save 无条件覆盖当天的总结
func (s *SummaryStore) Save(summary *model.DailySummary) error {
	if summary.Date == "" {
		return fmt.Errorf("summary has no date")
	}
	return WriteJSON(s.Path(summary.Date), summary)
}

// Load 读取某天的总结
func (s *SummaryStore) Load(date string) (*model.DailySummary, error) {
	return ReadSummary(s.Path(date))
}

// Exists 某天的总结是否存在
func (s *SummaryStore) Exists(date string) bool {
	_, err := os.Stat(s.Path(date))
	return err == nil
}

// Dates 已有总结的日期，从新到旧
func (s *SummaryStore) Dates() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, err
	}
	dates := make([]string, 0, len(files))
	for _, f := range files {
		dates = append(dates, strings.TrimSuffix(filepath.Base(f), ".json"))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

// ReadSummary 从文件读取总结
func ReadSummary(path string) (*model.DailySummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	summary := &model.DailySummary{
		Categories:        model.NewCategories(),
		CategorySummaries: model.NewCategorySummaries(),
	}
	if err := json.Unmarshal(data, summary); err != nil {
		return nil, fmt.Errorf("parse summary %s: %w", path, err)
	}
	if summary.Categories == nil {
		summary.Categories = model.NewCategories()
	}
	if summary.CategorySummaries == nil {
		summary.CategorySummaries = model.NewCategorySummaries()
	}
	return summary, nil
}
