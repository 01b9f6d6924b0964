// Package publish 为静态站点生成数据文件：index.json 索引和每日总结副本。
package publish

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/config"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/logger"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/model"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/store"
)

// Publisher 静态数据生成器
type Publisher struct {
	summaries   *store.SummaryStore
	podcastsDir string
	webDir      string
}

// Result 一次发布的统计
type Result struct {
	Entries []model.IndexEntry
	Copied  int
}

func New(paths config.PathsConfig) *Publisher {
	return &Publisher{
		summaries:   store.NewSummaryStore(paths.SummariesDir()),
		podcastsDir: paths.PodcastsDir,
		webDir:      paths.WebDataDir,
	}
}

// PodcastPath 某天播客音频的路径
func PodcastPath(podcastsDir, date string) string {
	return filepath.Join(podcastsDir, date+"_podcast.mp3")
}

// ContentPath 某天播客素材 Markdown 的路径
func ContentPath(podcastsDir, date string) string {
	return filepath.Join(podcastsDir, date+"_content.md")
}

func (p *Publisher) hasPodcast(date string) bool {
	return exists(PodcastPath(p.podcastsDir, date))
}

// BuildIndex 读取全部每日总结，从新到旧生成索引，无法解析的文件跳过
func (p *Publisher) BuildIndex() ([]model.IndexEntry, error) {
	dates, err := p.summaries.Dates()
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}

	entries := make([]model.IndexEntry, 0, len(dates))
	for _, date := range dates {
		s, err := p.summaries.Load(date)
		if err != nil {
			logger.Log.Warnf("处理总结文件失败 [%s]: %v", p.summaries.Path(date), err)
			continue
		}
		entries = append(entries, model.IndexEntry{
			Date:            date,
			TotalItems:      s.TotalItems,
			Categories:      s.CategoryNames(),
			HighlightsCount: len(s.Highlights),
			DailySummary:    s.DailySummary,
			HasPodcast:      p.hasPodcast(date),
		})
	}
	return entries, nil
}

// Run 写入 <web>/index.json，并把总结文件复制到 <web>/summaries/
func (p *Publisher) Run() (*Result, error) {
	entries, err := p.BuildIndex()
	if err != nil {
		return nil, err
	}
	indexPath := filepath.Join(p.webDir, "index.json")
	if err := store.WriteJSON(indexPath, entries); err != nil {
		return nil, fmt.Errorf("write index: %w", err)
	}
	logger.Log.Infof("索引已生成，共 %d 条: %s", len(entries), indexPath)

	dates, err := p.summaries.Dates()
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	copied := 0
	for _, date := range dates {
		src := p.summaries.Path(date)
		data, err := os.ReadFile(src)
		if err != nil {
			logger.Log.Warnf("读取总结文件失败 [%s]: %v", src, err)
			continue
		}
		dst := filepath.Join(p.webDir, "summaries", filepath.Base(src))
		if err := store.WriteFileAtomic(dst, data); err != nil {
			return nil, fmt.Errorf("copy %s: %w", src, err)
		}
		copied++
	}
	logger.Log.Infof("已复制 %d 个总结文件", copied)

	return &Result{Entries: entries, Copied: copied}, nil
}
