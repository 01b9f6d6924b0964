package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
)

// Options 全局参数
type Options struct {
	Config string `short:"c" long:"config" env:"AUTO_RSS_CONFIG" default:"configs/config.yaml" description:"配置文件路径"`
}

var opts Options

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.ShortDescription = "AutoRSS"
	parser.LongDescription = "抓取 RSS/arXiv 订阅源，使用 LLM 分类翻译并生成每日总结"

	mustAddCommand(parser, "fetch", "抓取订阅源", "抓取 rss 目录下的全部订阅源，新条目按日期写入 raw_content", &fetchCommand{})
	mustAddCommand(parser, "analyze", "分析某天的条目", "分批调用 LLM 分类翻译，合并后写入 data/summaries/<date>.json", &analyzeCommand{})
	mustAddCommand(parser, "render", "生成播客素材", "把每日总结渲染为 Markdown（可选 HTML）", &renderCommand{})
	mustAddCommand(parser, "publish", "生成静态站点数据", "生成 index.json 并复制每日总结到 web 数据目录", &publishCommand{})
	mustAddCommand(parser, "status", "查看最近的产出", "检查最近几天的总结与播客文件", &statusCommand{})

	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}
}

func mustAddCommand(parser *flags.Parser, name, short, long string, data any) {
	if _, err := parser.AddCommand(name, short, long, data); err != nil {
		panic(err)
	}
}

// signalContext 收到中断信号时取消
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
