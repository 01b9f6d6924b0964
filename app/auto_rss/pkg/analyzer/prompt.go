package analyzer

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/llm"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/model"
)

const (
	maxPromptAuthors = 3
	maxPromptSummary = 300
)

const batchSystemPrompt = "你是一个专业的AI研究论文与科技资讯分析助手，精通计算机科学和人工智能领域，擅长准确翻译和总结内容的核心创新点。请始终以JSON格式返回结果。"

const batchPromptTpl = `请分析以下%d条AI领域的论文与资讯，完成以下任务：

1. 将这些内容按研究方向分类（如：大语言模型/LLM、计算机视觉/CV、强化学习/RL、多模态学习、机器人、推荐系统、图神经网络、NLP、生成模型、优化算法、理论研究等）
2. 对每条内容的标题和摘要进行准确的中文翻译，生成一个简明的中文摘要（150-200字），突出创新点和主要贡献
3. 从学术价值和实用性角度，选出最值得关注的亮点（2-3个）

请以JSON格式返回结果，格式如下：
{
    "categories": {
        "研究方向": [
            {
                "id": "原始ID",
                "title": "原英文标题",
                "title_zh": "中文标题",
                "link": "原文链接",
                "summary": "原英文摘要",
                "summary_zh": "中文摘要（突出创新点和贡献）",
                "published": "发布时间",
                "authors": ["作者列表"],
                "categories": ["原始分类"]
            }
        ]
    },
    "highlights": [
        "亮点1：简述标题及其核心创新",
        "亮点2：简述标题及其核心创新"
    ]
}

待分析内容：

%s
`

// formatItem 单条内容在提示词中的文本
func formatItem(item model.RawItem) string {
	authors := item.Authors
	more := ""
	if len(authors) > maxPromptAuthors {
		authors = authors[:maxPromptAuthors]
		more = "..."
	}

	summary := []rune(llm.PlainText(item.Summary))
	if len(summary) > maxPromptSummary {
		summary = summary[:maxPromptSummary]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "标题: %s\n", cmp.Or(item.Title, "N/A"))
	fmt.Fprintf(&sb, "ID: %s\n", cmp.Or(item.ID, "N/A"))
	fmt.Fprintf(&sb, "链接: %s\n", cmp.Or(item.Link, "N/A"))
	fmt.Fprintf(&sb, "作者: %s%s\n", strings.Join(authors, ", "), more)
	fmt.Fprintf(&sb, "发布时间: %s\n", cmp.Or(item.Published, "N/A"))
	fmt.Fprintf(&sb, "分类: %s\n", strings.Join(item.Categories, ", "))
	fmt.Fprintf(&sb, "摘要: %s", cmp.Or(string(summary), "N/A"))
	return sb.String()
}

// buildBatchPrompt 批次分析的用户提示词
func buildBatchPrompt(batch []model.RawItem) string {
	parts := make([]string, 0, len(batch))
	for _, item := range batch {
		parts = append(parts, formatItem(item))
	}
	return fmt.Sprintf(batchPromptTpl, len(batch), strings.Join(parts, "\n\n"))
}
