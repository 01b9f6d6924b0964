package feedstate

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/logger"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/model"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/store"
)

// File 订阅源条件请求缓存文件
type File struct {
	path string
}

func New(path string) *File {
	return &File{path: path}
}

// Load 读取缓存，文件缺失或损坏时返回空表
func (f *File) Load() model.FeedState {
	state := model.FeedState{}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Log.Warnf("读取订阅源状态失败 [%s]: %v", f.path, err)
		}
		return state
	}
	if err := json.Unmarshal(data, &state); err != nil {
		logger.Log.Warnf("解析订阅源状态失败 [%s]: %v", f.path, err)
		return model.FeedState{}
	}
	return state
}

// Save 整体写回缓存
func (f *File) Save(state model.FeedState) error {
	return store.WriteJSON(f.path, state)
}
