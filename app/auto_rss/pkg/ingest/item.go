package ingest

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"

	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/logger"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/model"
)

const dateLayout = "2006-01-02"

// Fingerprint 条目唯一标识：id，其次 link，最后 title+published 的 SHA-256
func Fingerprint(item model.RawItem) string {
	unique := cmp.Or(item.ID, item.Link, item.Title+item.Published)
	sum := sha256.Sum256([]byte(unique))
	return hex.EncodeToString(sum[:])
}

// ResolveBucket 计算条目的日期目录。
// 带时区的时间换算到 UTC；不带时区的按字面日期；为空或解析失败时使用 now 的本地日期。
func ResolveBucket(published string, now time.Time) string {
	if strings.TrimSpace(published) == "" {
		return now.Format(dateLayout)
	}
	// loc 为空时，不带时区的字符串按 UTC 解析，日期保持字面值
	t, err := dateparse.ParseAny(published)
	if err != nil {
		logger.Log.Warnf("解析发布时间失败 %q: %v，使用当天日期", published, err)
		return now.Format(dateLayout)
	}
	// "hello, world"、"12/31" 这类没有年份的字符串会被解析成公元 0 年
	if t.Year() < 1 {
		logger.Log.Warnf("发布时间缺少年份 %q，使用当天日期", published)
		return now.Format(dateLayout)
	}
	return t.UTC().Format(dateLayout)
}

// toRawItem 将 gofeed 条目转换为落盘格式
func toRawItem(entry *gofeed.Item) model.RawItem {
	item := model.RawItem{
		ID:         entry.GUID,
		Title:      entry.Title,
		Link:       entry.Link,
		Summary:    cmp.Or(entry.Description, entry.Content),
		Published:  entry.Published,
		Updated:    entry.Updated,
		Categories: entry.Categories,
		PDFLink:    pdfLink(entry),
	}
	for _, a := range entry.Authors {
		if a != nil && a.Name != "" {
			item.Authors = append(item.Authors, a.Name)
		}
	}
	if len(item.Authors) == 0 && entry.Author != nil && entry.Author.Name != "" {
		item.Authors = []string{entry.Author.Name}
	}
	return item
}

// pdfLink arXiv 条目的 PDF 地址
func pdfLink(entry *gofeed.Item) string {
	for _, enc := range entry.Enclosures {
		if enc != nil && enc.Type == "application/pdf" {
			return enc.URL
		}
	}
	for _, l := range entry.Links {
		if strings.Contains(l, "/pdf/") || strings.HasSuffix(strings.ToLower(l), ".pdf") {
			return l
		}
	}
	return ""
}
