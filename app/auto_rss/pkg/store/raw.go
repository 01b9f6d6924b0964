package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/logger"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/model"
)

// RawStore 按日期分桶、按指纹命名的原始条目存储
type RawStore struct {
	dir string
}

func NewRawStore(dir string) *RawStore {
	return &RawStore{dir: dir}
}

// Path 条目文件路径
func (s *RawStore) Path(bucket, fingerprint string) string {
	return filepath.Join(s.dir, bucket, fingerprint+".json")
}

// Put 写入一条原始条目
func (s *RawStore) Put(bucket, fingerprint string, item model.RawItem) error {
	return WriteJSON(s.Path(bucket, fingerprint), item)
}

// Load 读取某天的全部条目，解析失败的文件记录警告后跳过
func (s *RawStore) Load(date string) ([]model.RawItem, error) {
	files, err := filepath.Glob(filepath.Join(s.dir, date, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list raw items for %s: %w", date, err)
	}
	sort.Strings(files)

	items := make([]model.RawItem, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			logger.Log.Warnf("读取条目失败 [%s]: %v", file, err)
			continue
		}
		var item model.RawItem
		if err := json.Unmarshal(data, &item); err != nil {
			logger.Log.Warnf("解析条目失败 [%s]: %v", file, err)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Dates 已存在的日期桶
func (s *RawStore) Dates() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var dates []string
	for _, e := range entries {
		if e.IsDir() {
			dates = append(dates, e.Name())
		}
	}
	sort.Strings(dates)
	return dates, nil
}
