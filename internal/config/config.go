package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/voxedit-io/voxedit/pkg/protocol"
)

// Provider types.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderLocal     = "local"
)

// DefaultProviderName is the provider used when the assistant names none.
const DefaultProviderName = "default"

// Config is the top-level voxedit configuration.
type Config struct {
	Assistant  AssistantConfig           `json:"assistant"`
	Providers  map[string]ProviderConfig `json:"providers"`
	API        APIConfig                 `json:"api"`
	Journal    JournalConfig             `json:"journal"`
	Connectors ConnectorConfig           `json:"connectors"`
	LogLevel   string                    `json:"log_level,omitempty"`
}

// AssistantConfig configures the command dispatcher.
type AssistantConfig struct {
	protocol.AssistantSpec
	MaxIterations int `json:"max_iterations,omitempty"` // default 25
}

// ProviderConfig holds LLM provider settings.
type ProviderConfig struct {
	Type        string  `json:"type,omitempty"` // "openai" (default), "anthropic" or "local"
	APIKey      string  `json:"api_key,omitempty"`
	BaseURL     string  `json:"base_url,omitempty"`
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature"`
}

// APIConfig holds REST API server settings.
type APIConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	Key  string `json:"api_key,omitempty"`
}

// Addr returns the listen address.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// JournalConfig holds command journal settings. An empty Path disables it.
type JournalConfig struct {
	Path          string   `json:"path,omitempty"`
	Retention     Duration `json:"retention,omitempty"`      // default 720h; 0 keeps everything
	PruneSchedule string   `json:"prune_schedule,omitempty"` // default "@every 1h"
}

// Enabled reports whether commands are journaled.
func (j JournalConfig) Enabled() bool { return j.Path != "" }

// ConnectorConfig holds settings for chat platform connectors.
type ConnectorConfig struct {
	Telegram *TelegramConfig `json:"telegram,omitempty"`
	Slack    *SlackConfig    `json:"slack,omitempty"`
}

// TelegramConfig holds Telegram bot settings.
type TelegramConfig struct {
	Token     string       `json:"token"`
	AllowFrom []int64      `json:"allow_from,omitempty"`
	Voice     *VoiceConfig `json:"voice,omitempty"`
}

// VoiceConfig holds Whisper transcription settings for voice commands.
type VoiceConfig struct {
	WhisperURL    string `json:"whisper_url,omitempty"`
	WhisperAPIKey string `json:"whisper_api_key,omitempty"`
	WhisperModel  string `json:"whisper_model,omitempty"`
	Language      string `json:"language,omitempty"`
}

// SlackConfig holds Slack Socket Mode settings.
type SlackConfig struct {
	BotToken string   `json:"bot_token"`
	AppToken string   `json:"app_token"`
	Channels []string `json:"channels,omitempty"`
}

// Duration is a time.Duration written as a Go duration string ("720h").
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"720h\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Defaults.
const (
	DefaultPort          = 5001
	DefaultRetention     = Duration(720 * time.Hour)
	DefaultPruneSchedule = "@every 1h"
)

// LoadDotEnv loads variables from .env files (default ".env") without
// overriding ones already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from a JSON file. Unset values get their
// defaults and empty provider keys fall back to the usual environment
// variables (OPENAI_API_KEY, ANTHROPIC_API_KEY).
func Load(path string) (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := &Config{
		Journal: JournalConfig{Retention: DefaultRetention},
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv builds a config from environment variables with the VOXEDIT_
// prefix.
func LoadFromEnv() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &Config{
		Assistant: AssistantConfig{
			AssistantSpec: protocol.AssistantSpec{
				ID:       getenv("VOXEDIT_ASSISTANT_ID", "voxedit"),
				Role:     "Voice editor assistant",
				Provider: DefaultProviderName,
			},
			MaxIterations: getenvInt("VOXEDIT_MAX_ITERATIONS", 0),
		},
		Providers: map[string]ProviderConfig{
			DefaultProviderName: {
				Type:        getenv("VOXEDIT_PROVIDER", ProviderOpenAI),
				Model:       os.Getenv("VOXEDIT_MODEL"),
				BaseURL:     os.Getenv("VOXEDIT_BASE_URL"),
				Temperature: getenvFloat("VOXEDIT_TEMPERATURE", 0),
			},
		},
		API: APIConfig{
			Host: getenv("VOXEDIT_API_HOST", "0.0.0.0"),
			Port: getenvInt("VOXEDIT_API_PORT", DefaultPort),
			Key:  os.Getenv("VOXEDIT_API_KEY"),
		},
		Journal: JournalConfig{
			Path:          os.Getenv("VOXEDIT_JOURNAL_PATH"),
			Retention:     DefaultRetention,
			PruneSchedule: os.Getenv("VOXEDIT_JOURNAL_PRUNE_SCHEDULE"),
		},
		LogLevel: os.Getenv("VOXEDIT_LOG_LEVEL"),
	}

	if v := os.Getenv("VOXEDIT_JOURNAL_RETENTION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("config: VOXEDIT_JOURNAL_RETENTION: %w", err)
		}
		cfg.Journal.Retention = Duration(d)
	}

	if token := os.Getenv("VOXEDIT_TELEGRAM_TOKEN"); token != "" {
		tg := &TelegramConfig{Token: token}
		if ids := os.Getenv("VOXEDIT_TELEGRAM_ALLOW_FROM"); ids != "" {
			parsed, err := parseInt64List(ids)
			if err != nil {
				return nil, fmt.Errorf("config: VOXEDIT_TELEGRAM_ALLOW_FROM: %w", err)
			}
			tg.AllowFrom = parsed
		}
		if key := os.Getenv("VOXEDIT_WHISPER_API_KEY"); key != "" || os.Getenv("VOXEDIT_WHISPER_URL") != "" {
			tg.Voice = &VoiceConfig{
				WhisperURL:    os.Getenv("VOXEDIT_WHISPER_URL"),
				WhisperAPIKey: key,
				WhisperModel:  os.Getenv("VOXEDIT_WHISPER_MODEL"),
				Language:      os.Getenv("VOXEDIT_WHISPER_LANGUAGE"),
			}
		}
		cfg.Connectors.Telegram = tg
	}

	if bot := os.Getenv("VOXEDIT_SLACK_BOT_TOKEN"); bot != "" {
		cfg.Connectors.Slack = &SlackConfig{
			BotToken: bot,
			AppToken: os.Getenv("VOXEDIT_SLACK_APP_TOKEN"),
		}
		if ch := os.Getenv("VOXEDIT_SLACK_CHANNELS"); ch != "" {
			cfg.Connectors.Slack.Channels = splitList(ch)
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Assistant.ID == "" {
		c.Assistant.ID = "voxedit"
	}
	if len(c.Providers) == 0 {
		c.Providers = map[string]ProviderConfig{
			DefaultProviderName: {Type: ProviderOpenAI},
		}
	}
	if c.Assistant.Provider == "" && len(c.Providers) == 1 {
		for name := range c.Providers {
			c.Assistant.Provider = name
		}
	}
	for name, p := range c.Providers {
		if p.Type == "" {
			p.Type = ProviderOpenAI
		}
		p.Type = strings.ToLower(p.Type)
		if p.APIKey == "" {
			switch p.Type {
			case ProviderOpenAI:
				p.APIKey = os.Getenv("OPENAI_API_KEY")
			case ProviderAnthropic:
				p.APIKey = os.Getenv("ANTHROPIC_API_KEY")
			}
		}
		c.Providers[name] = p
	}

	if c.API.Host == "" {
		c.API.Host = "0.0.0.0"
	}
	if c.API.Port == 0 {
		c.API.Port = DefaultPort
	}

	if c.Journal.PruneSchedule == "" {
		c.Journal.PruneSchedule = DefaultPruneSchedule
	}

	if tg := c.Connectors.Telegram; tg != nil && tg.Voice != nil && tg.Voice.WhisperAPIKey == "" {
		tg.Voice.WhisperAPIKey = os.Getenv("OPENAI_API_KEY")
	}
}

// AssistantProvider returns the provider configuration the assistant uses.
func (c *Config) AssistantProvider() (string, ProviderConfig, bool) {
	name := c.Assistant.Provider
	if name == "" {
		name = DefaultProviderName
	}
	p, ok := c.Providers[name]
	return name, p, ok
}

// Validate checks the configuration and reports every problem at once.
// API keys are not required: a provider without a key fails at call time.
func (c *Config) Validate() error {
	var errs []string

	if c.Assistant.ID == "" {
		errs = append(errs, "assistant.id is required")
	}
	if c.Assistant.MaxIterations < 0 {
		errs = append(errs, "assistant.max_iterations must not be negative")
	}

	if len(c.Providers) == 0 {
		errs = append(errs, "at least one provider is required")
	}
	for name, p := range c.Providers {
		switch p.Type {
		case ProviderOpenAI, ProviderAnthropic, ProviderLocal:
		default:
			errs = append(errs, fmt.Sprintf("providers.%s.type %q is not one of openai, anthropic, local", name, p.Type))
		}
		if p.Temperature < 0 || p.Temperature > 2 {
			errs = append(errs, fmt.Sprintf("providers.%s.temperature must be between 0 and 2", name))
		}
	}
	if len(c.Providers) > 0 {
		if name, _, ok := c.AssistantProvider(); !ok {
			errs = append(errs, fmt.Sprintf("assistant.provider references unknown provider %q", name))
		}
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, fmt.Sprintf("api.port %d is out of range", c.API.Port))
	}

	if c.Journal.Retention < 0 {
		errs = append(errs, "journal.retention must not be negative")
	}
	if c.Journal.Enabled() {
		if _, err := cron.ParseStandard(c.Journal.PruneSchedule); err != nil {
			errs = append(errs, fmt.Sprintf("journal.prune_schedule: %v", err))
		}
	}

	if c.Connectors.Telegram != nil && c.Connectors.Telegram.Token == "" {
		errs = append(errs, "connectors.telegram.token is required")
	}
	if s := c.Connectors.Slack; s != nil {
		if s.BotToken == "" {
			errs = append(errs, "connectors.slack.bot_token is required")
		}
		if s.AppToken == "" {
			errs = append(errs, "connectors.slack.app_token is required")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseInt64List(s string) ([]int64, error) {
	parts := splitList(s)
	result := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", p)
		}
		result = append(result, n)
	}
	return result, nil
}
