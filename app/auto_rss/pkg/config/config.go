package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingAPIKey 未配置 LLM API Key
var ErrMissingAPIKey = errors.New("llm api key is not configured (set llm.api_key or OPENAI_API_KEY)")

// Config 项目配置结构体
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Paths       PathsConfig       `yaml:"paths"`
	Analysis    AnalysisConfig    `yaml:"analysis"`
	Fetch       FetchConfig       `yaml:"fetch"`
	Ledger      LedgerConfig      `yaml:"ledger"`
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	DB          DBConfig          `yaml:"db"`
}

// LLMConfig LLM 相关配置
type LLMConfig struct {
	BaseURL          string  `yaml:"base_url"`
	APIKey           string  `yaml:"api_key"`
	Model            string  `yaml:"model"`
	MaxTokens        int     `yaml:"max_tokens"`
	SummaryMaxTokens int     `yaml:"summary_max_tokens"`
	Temperature      float32 `yaml:"temperature"`
}

// PathsConfig 数据目录配置
type PathsConfig struct {
	RSSDir      string `yaml:"rss_dir"`
	RawDir      string `yaml:"raw_dir"`
	DataDir     string `yaml:"data_dir"`
	WebDataDir  string `yaml:"web_data_dir"`
	PodcastsDir string `yaml:"podcasts_dir"`
}

// SummariesDir 每日总结输出目录
func (p PathsConfig) SummariesDir() string {
	return filepath.Join(p.DataDir, "summaries")
}

// StateFile 订阅源缓存状态文件
func (p PathsConfig) StateFile() string {
	return filepath.Join(p.DataDir, "feed_state.json")
}

// AnalysisConfig 分批分析配置
type AnalysisConfig struct {
	BatchSize       int           `yaml:"batch_size"`
	MaxAttempts     int           `yaml:"max_attempts"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
	HighlightsLimit int           `yaml:"highlights_limit"`
}

// FetchConfig 抓取配置
type FetchConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	UserAgent      string        `yaml:"user_agent"`
	ExtractContent bool          `yaml:"extract_content"`
}

// LedgerConfig 去重记录配置，backend 为 file 或 sqlite
type LedgerConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig 并发控制配置，RPM 为 0 时不限流
type ConcurrencyConfig struct {
	QPS int `yaml:"qps"`
	RPM int `yaml:"rpm"`
}

// DBConfig 数据库相关配置，Host 为空时不启用归档
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			BaseURL:          "https://api.deepseek.com/v1",
			Model:            "deepseek-chat",
			MaxTokens:        4000,
			SummaryMaxTokens: 2000,
			Temperature:      0.7,
		},
		Paths: PathsConfig{
			RSSDir:      "rss",
			RawDir:      "raw_content",
			DataDir:     "data",
			WebDataDir:  filepath.Join("web", "public", "data"),
		},
		Analysis: AnalysisConfig{
			BatchSize:       5,
			MaxAttempts:     3,
			RetryDelay:      time.Second,
			HighlightsLimit: 10,
		},
		Fetch: FetchConfig{
			Timeout:   30 * time.Second,
			UserAgent: "AutoRSS/1.0",
		},
		Ledger: LedgerConfig{
			Backend: "file",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig 从指定路径加载配置，文件不存在时使用默认配置
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

// applyEnv 环境变量优先于配置文件
func (c *Config) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.LLM.Model = v
	}
}

func (c *Config) normalize() {
	def := Default()
	if c.Analysis.BatchSize <= 0 {
		c.Analysis.BatchSize = def.Analysis.BatchSize
	}
	if c.Analysis.MaxAttempts <= 0 {
		c.Analysis.MaxAttempts = def.Analysis.MaxAttempts
	}
	if c.Analysis.RetryDelay < 0 {
		c.Analysis.RetryDelay = 0
	}
	if c.Analysis.HighlightsLimit <= 0 {
		c.Analysis.HighlightsLimit = def.Analysis.HighlightsLimit
	}
	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = def.Fetch.Timeout
	}
	if c.Ledger.Backend == "" {
		c.Ledger.Backend = def.Ledger.Backend
	}
	// 未单独配置的路径都挂在 data_dir 下
	if c.Paths.DataDir == "" {
		c.Paths.DataDir = def.Paths.DataDir
	}
	if c.Paths.PodcastsDir == "" {
		c.Paths.PodcastsDir = filepath.Join(c.Paths.DataDir, "podcasts")
	}
	if c.Ledger.Path == "" {
		c.Ledger.Path = filepath.Join(c.Paths.DataDir, "rss_history.txt")
	}
}

// Validate 校验分析阶段必需的配置
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.LLM.Model == "" {
		return errors.New("llm model is not configured")
	}
	return nil
}
