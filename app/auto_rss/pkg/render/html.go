package render

import (
	"cmp"
	"html/template"
	"io"

	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/model"
)

type itemView struct {
	Title     string
	Original  string
	Link      string
	Published string
	Summary   string
}

type categoryView struct {
	Name    string
	Summary string
	Items   []itemView
}

// HTMLData 页面渲染数据
type HTMLData struct {
	Date         string
	TotalItems   int
	DailySummary string
	Highlights   []string
	Categories   []categoryView
}

func newHTMLData(s *model.DailySummary) HTMLData {
	data := HTMLData{
		Date:         s.Date,
		TotalItems:   s.TotalItems,
		DailySummary: s.DailySummary,
		Highlights:   s.Highlights,
	}
	if s.Categories == nil {
		return data
	}
	for pair := s.Categories.Oldest(); pair != nil; pair = pair.Next() {
		cv := categoryView{Name: pair.Key}
		if s.CategorySummaries != nil {
			cv.Summary, _ = s.CategorySummaries.Get(pair.Key)
		}
		for _, item := range pair.Value {
			title := cmp.Or(item.TitleZh, item.Title)
			iv := itemView{
				Title:     title,
				Link:      item.Link,
				Published: item.Published,
				Summary:   cmp.Or(item.SummaryZh, item.Summary),
			}
			if item.Title != title {
				iv.Original = item.Title
			}
			cv.Items = append(cv.Items, iv)
		}
		data.Categories = append(data.Categories, cv)
	}
	return data
}

var pageTpl = template.Must(template.New("daily").Parse(`<!DOCTYPE html>
<html lang="zh-CN">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>每日科技资讯 | {{ .Date }}</title>
    <script src="https://cdn.jsdelivr.net/npm/marked/marked.min.js"></script>
    <style>
        :root {
            --primary-color: #2563eb;
            --bg-color: #f8fafc;
            --card-bg: #ffffff;
            --text-main: #1e293b;
            --text-secondary: #64748b;
            --border-color: #e2e8f0;
        }
        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            background-color: var(--bg-color);
            color: var(--text-main);
            line-height: 1.6;
            margin: 0;
            padding: 20px;
        }
        .container { max-width: 900px; margin: 0 auto; }
        header { text-align: center; margin-bottom: 40px; padding: 20px 0; }
        h1 { font-size: 2.5rem; margin: 0 0 10px 0; }
        .date-info { color: var(--text-secondary); }
        .daily-summary {
            background: #eff6ff;
            padding: 24px;
            border-radius: 12px;
            margin-bottom: 30px;
            border-left: 4px solid var(--primary-color);
        }
        .highlights { background: #faf5ff; padding: 20px; border-radius: 8px; margin-bottom: 30px; border-left: 4px solid #a855f7; }
        .category-card {
            background: var(--card-bg);
            border-radius: 12px;
            padding: 24px;
            margin-bottom: 30px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.05);
            border: 1px solid var(--border-color);
        }
        .category-title { font-size: 1.6rem; font-weight: 800; color: #0f172a; border-bottom: 1px solid #f1f5f9; padding-bottom: 10px; }
        .category-summary { color: #475569; }
        .item-list { list-style: none; padding: 0; }
        .item-list li { margin-bottom: 16px; }
        .item-list a { color: var(--primary-color); text-decoration: none; font-weight: bold; }
        .item-list a:hover { text-decoration: underline; }
        .item-meta { color: #94a3b8; font-size: 0.8em; }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>📡 每日科技资讯</h1>
            <div class="date-info">{{ .Date }} • 共 {{ .TotalItems }} 条 • {{ len .Categories }} 个分类</div>
        </header>

        {{if .DailySummary}}
        <div class="daily-summary">
            <div id="daily-summary"></div>
            <div style="display:none" id="raw-daily">{{.DailySummary}}</div>
        </div>
        {{end}}

        {{if .Highlights}}
        <div class="highlights">
            <h3>🔥 今日亮点</h3>
            <ul>
                {{range .Highlights}}
                <li>{{.}}</li>
                {{end}}
            </ul>
        </div>
        {{end}}

        {{range .Categories}}
        <div class="category-card">
            <div class="category-title">{{.Name}} ({{len .Items}})</div>
            {{if .Summary}}<p class="category-summary">{{.Summary}}</p>{{end}}
            <ul class="item-list">
                {{range .Items}}
                <li>
                    <a href="{{.Link}}" target="_blank">{{.Title}}</a>
                    {{if .Original}}<div class="item-meta">{{.Original}}</div>{{end}}
                    <div class="item-meta">{{.Published}}</div>
                    <div>{{.Summary}}</div>
                </li>
                {{end}}
            </ul>
        </div>
        {{end}}
    </div>

    <script>
        document.addEventListener('DOMContentLoaded', function() {
            const dailyRaw = document.getElementById('raw-daily');
            if (dailyRaw) document.getElementById('daily-summary').innerHTML = marked.parse(dailyRaw.textContent);
        });
    </script>
</body>
</html>
`))

// HTML 渲染单日页面
func HTML(w io.Writer, s *model.DailySummary) error {
	return pageTpl.Execute(w, newHTMLData(s))
}
