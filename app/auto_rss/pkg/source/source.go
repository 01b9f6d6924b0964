package source

import (
	"encoding/xml"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/logger"
)

// Kind 订阅源文件类型
type Kind string

const (
	KindURL  Kind = "url"
	KindOPML Kind = "opml"
	KindFeed Kind = "xml"
)

// Source 一个订阅源文件解析后的内容
type Source struct {
	Path string
	Kind Kind
	URLs []string // KindURL 时只有一个元素
	Body string   // KindFeed 时为 feed 原文
}

// Resolve 根据文件内容判断类型：URL 前缀，其次 OPML 根节点，否则视为 feed 原文
func Resolve(content string) Source {
	text := strings.TrimSpace(content)
	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		return Source{Kind: KindURL, URLs: []string{text}}
	}
	if urls, ok := parseOPML(text); ok {
		return Source{Kind: KindOPML, URLs: urls}
	}
	return Source{Kind: KindFeed, Body: text}
}

// parseOPML 文档格式错误或根节点不是 opml 时返回 false
func parseOPML(text string) ([]string, bool) {
	dec := xml.NewDecoder(strings.NewReader(text))
	dec.Strict = true

	var (
		urls    = []string{}
		rootSet bool
		isOPML  bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, false
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if !rootSet {
			rootSet = true
			isOPML = strings.HasSuffix(strings.ToLower(start.Name.Local), "opml")
			if !isOPML {
				return nil, false
			}
			continue
		}
		if start.Name.Local != "outline" {
			continue
		}
		if u := outlineURL(start.Attr); u != "" {
			urls = append(urls, u)
		}
	}
	return urls, rootSet && isOPML
}

func outlineURL(attrs []xml.Attr) string {
	var lower string
	for _, a := range attrs {
		switch a.Name.Local {
		case "xmlUrl":
			if a.Value != "" {
				return a.Value
			}
		case "xmlurl":
			lower = a.Value
		}
	}
	return lower
}

// List 读取目录下所有 *.xml 订阅源文件，按文件名排序，读取失败的文件跳过
func List(dir string) ([]Source, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.xml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	sources := make([]Source, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			logger.Log.Errorf("读取订阅源文件失败 [%s]: %v", file, err)
			continue
		}
		src := Resolve(string(data))
		src.Path = file
		sources = append(sources, src)
	}
	return sources, nil
}
