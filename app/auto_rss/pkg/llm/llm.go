// Package llm 封装 OpenAI 兼容的对话补全接口，以及对模型输出的 JSON 提取。
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/config"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/logger"
)

// Request 一次对话补全请求
type Request struct {
	System    string
	User      string
	MaxTokens int // 0 表示使用客户端默认值
}

// Client 对话补全客户端，返回助手消息的原始文本
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ChatClient 基于 eino openai ChatModel 的实现，要求模型以 JSON 对象格式回复
type ChatClient struct {
	chatModel model.ChatModel
	limiter   *rate.Limiter
}

// NewChatClient 初始化 LLM 与限流器
func NewChatClient(ctx context.Context, cfg config.LLMConfig, cc config.ConcurrencyConfig) (*ChatClient, error) {
	if cfg.APIKey == "" {
		return nil, config.ErrMissingAPIKey
	}

	chatCfg := &openai.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: 2 * time.Minute,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	if cfg.MaxTokens > 0 {
		chatCfg.MaxTokens = &cfg.MaxTokens
	}
	if cfg.Temperature > 0 {
		chatCfg.Temperature = &cfg.Temperature
	}

	chatModel, err := openai.NewChatModel(ctx, chatCfg)
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}
	return NewWithModel(chatModel, NewLimiter(cc)), nil
}

// NewWithModel 使用已有的 ChatModel 构造客户端，limiter 为空时不限流
func NewWithModel(cm model.ChatModel, limiter *rate.Limiter) *ChatClient {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	return &ChatClient{chatModel: cm, limiter: limiter}
}

// NewLimiter RPM 为 0 时不限流，QPS 为突发容量
func NewLimiter(cc config.ConcurrencyConfig) *rate.Limiter {
	if cc.RPM <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := cc.QPS
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(cc.RPM)/60.0), burst)
}

// Complete 发送 system + user 两条消息，返回模型回复内容
func (c *ChatClient) Complete(ctx context.Context, req Request) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	messages := []*schema.Message{
		{Role: schema.System, Content: req.System},
		{Role: schema.User, Content: req.User},
	}
	var opts []model.Option
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}

	resp, err := c.chatModel.Generate(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		logger.Log.Debugf("LLM 调用完成, tokens: %d", resp.ResponseMeta.Usage.TotalTokens)
	}
	return resp.Content, nil
}
