package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/zhouzirui/calm-companion/backend/internal/service/responder"
	"github.com/zhouzirui/calm-companion/backend/pkg/openaichat"
)

const (
	ProviderOpenAI = "openai"
	ProviderArk    = "ark"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Responder ResponderConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	resp, err := loadResponderConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Responder: resp}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// loadServerConfig 解析服务器监听地址与允许的跨域来源。
func loadServerConfig() (ServerConfig, error) {
	origins := splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"))

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// AIConfig 描述远程补全模型的配置。
type AIConfig struct {
	Provider     string
	APIKey       string
	AccessKey    string
	SecretKey    string
	Model        string
	BaseURL      string
	Region       string
	Temperature  *float64
	TopP         *float64
	MaxTokens    *int
	Timeout      time.Duration
	HistoryLimit int
}

// Enabled 表示是否提供了必需的密钥。缺少密钥时服务以兜底话术运行。
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderArk:
		return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
	default:
		return c.APIKey != ""
	}
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("%s credentials missing, set COMPANION_API_KEY (or Ark AK/SK with COMPANION_MODEL)", c.Provider)
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	switch c.Provider {
	case ProviderArk:
		var topP *float32
		if c.TopP != nil {
			val := float32(*c.TopP)
			topP = &val
		}

		cfg := &ark.ChatModelConfig{
			BaseURL:     c.BaseURL,
			Region:      c.Region,
			APIKey:      c.APIKey,
			AccessKey:   c.AccessKey,
			SecretKey:   c.SecretKey,
			Model:       c.Model,
			MaxTokens:   c.MaxTokens,
			Temperature: temperature,
			TopP:        topP,
		}
		chatModel, err := ark.NewChatModel(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return chatModel, nil
	default:
		chatModel, err := openaichat.New(openaichat.Config{
			APIKey:      c.APIKey,
			BaseURL:     c.BaseURL,
			Model:       c.Model,
			Temperature: temperature,
			MaxTokens:   c.MaxTokens,
			Timeout:     c.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return chatModel, nil
	}
}

func loadAIConfig() (AIConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("COMPANION_PROVIDER", ProviderOpenAI))
	if provider != ProviderOpenAI && provider != ProviderArk {
		return AIConfig{}, fmt.Errorf("invalid COMPANION_PROVIDER value %q", provider)
	}

	temperature, err := parseOptionalFloatEnv("COMPANION_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("COMPANION_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("COMPANION_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	timeout, err := parseDurationEnv("COMPANION_TIMEOUT", 20*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	historyLimit := 10
	if override, err := parseOptionalIntEnv("COMPANION_HISTORY_LIMIT"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		if *override < 1 {
			historyLimit = 1
		} else {
			historyLimit = *override
		}
	}

	cfg := AIConfig{
		Provider:     provider,
		Temperature:  temperature,
		TopP:         topP,
		MaxTokens:    maxTokens,
		Timeout:      timeout,
		HistoryLimit: historyLimit,
	}

	switch provider {
	case ProviderArk:
		cfg.APIKey = getEnvOrDefault("COMPANION_API_KEY", strings.TrimSpace(os.Getenv("ARK_API_KEY")))
		cfg.AccessKey = strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY"))
		cfg.SecretKey = strings.TrimSpace(os.Getenv("ARK_SECRET_KEY"))
		cfg.Model = strings.TrimSpace(os.Getenv("COMPANION_MODEL"))
		cfg.BaseURL = getEnvOrDefault("COMPANION_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3")
		cfg.Region = getEnvOrDefault("ARK_REGION", "cn-beijing")
	default:
		cfg.APIKey = getEnvOrDefault("COMPANION_API_KEY", strings.TrimSpace(os.Getenv("OPENAI_API_KEY")))
		cfg.Model = getEnvOrDefault("COMPANION_MODEL", openaichat.DefaultModel)
		cfg.BaseURL = getEnvOrDefault("COMPANION_BASE_URL", openaichat.DefaultBaseURL)
	}

	return cfg, nil
}

// ResponderConfig 描述规则回复的阈值与节奏。
type ResponderConfig struct {
	SummaryThreshold  int
	EscalationHistory int
	ScriptPath        string
	ThinkMin          time.Duration
	ThinkMax          time.Duration
	TokenDelayMin     time.Duration
	TokenDelayMax     time.Duration
}

// PacerConfig converts the delays into the responder's pacing settings.
func (c ResponderConfig) PacerConfig() responder.PacerConfig {
	pacer := responder.DefaultPacerConfig()
	pacer.ThinkMin = c.ThinkMin
	pacer.ThinkMax = c.ThinkMax
	pacer.TokenMin = c.TokenDelayMin
	pacer.TokenMax = c.TokenDelayMax
	return pacer
}

// RouterConfig converts the thresholds into router settings.
func (c ResponderConfig) RouterConfig() responder.Config {
	return responder.Config{
		SummaryThreshold:  c.SummaryThreshold,
		EscalationHistory: c.EscalationHistory,
	}
}

func loadResponderConfig() (ResponderConfig, error) {
	threshold, err := parseIntEnv("SUMMARY_MIN_INTERACTIONS", responder.DefaultSummaryThreshold)
	if err != nil {
		return ResponderConfig{}, err
	}
	escalation, err := parseIntEnv("ESCALATION_HISTORY", responder.DefaultEscalationHistory)
	if err != nil {
		return ResponderConfig{}, err
	}

	defaults := responder.DefaultPacerConfig()
	thinkMin, err := parseMillisEnv("THINK_MIN_MS", defaults.ThinkMin)
	if err != nil {
		return ResponderConfig{}, err
	}
	thinkMax, err := parseMillisEnv("THINK_MAX_MS", defaults.ThinkMax)
	if err != nil {
		return ResponderConfig{}, err
	}
	tokenMin, err := parseMillisEnv("TOKEN_DELAY_MIN_MS", defaults.TokenMin)
	if err != nil {
		return ResponderConfig{}, err
	}
	tokenMax, err := parseMillisEnv("TOKEN_DELAY_MAX_MS", defaults.TokenMax)
	if err != nil {
		return ResponderConfig{}, err
	}
	if thinkMax < thinkMin {
		return ResponderConfig{}, fmt.Errorf("THINK_MAX_MS must not be lower than THINK_MIN_MS")
	}
	if tokenMax < tokenMin {
		return ResponderConfig{}, fmt.Errorf("TOKEN_DELAY_MAX_MS must not be lower than TOKEN_DELAY_MIN_MS")
	}

	return ResponderConfig{
		SummaryThreshold:  threshold,
		EscalationHistory: escalation,
		ScriptPath:        strings.TrimSpace(os.Getenv("RESPONSE_CATALOG")),
		ThinkMin:          thinkMin,
		ThinkMax:          thinkMax,
		TokenDelayMin:     tokenMin,
		TokenDelayMax:     tokenMax,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	val, err := parseOptionalIntEnv(key)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return defaultValue, nil
	}
	if *val < 1 {
		return 0, fmt.Errorf("invalid %s value %d: must be positive", key, *val)
	}
	return *val, nil
}

func parseMillisEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	val, err := parseOptionalIntEnv(key)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return defaultValue, nil
	}
	if *val < 0 {
		return 0, fmt.Errorf("invalid %s value %d: must not be negative", key, *val)
	}
	return time.Duration(*val) * time.Millisecond, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
