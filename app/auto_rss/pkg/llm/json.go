package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoJSON 回复中找不到 JSON 对象
var ErrNoJSON = errors.New("no JSON object in response")

// 贪婪匹配：从第一个 { 到最后一个 }
var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractJSON 先整体解析；失败时取第一个 { 到最后一个 } 之间的内容再解析
func ExtractJSON(text string, v any) error {
	text = strings.TrimSpace(text)
	err := json.Unmarshal([]byte(text), v)
	if err == nil {
		return nil
	}

	match := jsonObjectRe.FindString(text)
	if match == "" {
		return fmt.Errorf("%w: %v", ErrNoJSON, err)
	}
	if err := json.Unmarshal([]byte(match), v); err != nil {
		return fmt.Errorf("json unmarshal: %w", err)
	}
	return nil
}

// PlainText 去掉 HTML 标签并合并空白，解析失败时原样返回
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
