package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	DefaultModel          = "gpt-4o-mini"
	DefaultBaseURL        = "https://api.openai.com/v1"
	DefaultRateLimitHours = 2
	DefaultMaxHours       = 16
	DefaultMaxTokens      = 50000
	DefaultPageSize       = 100
)

type Config struct {
	Discord  DiscordConfig  `json:"discord"`
	Provider ProviderConfig `json:"provider"`
	Summary  SummaryConfig  `json:"summary"`
}

type DiscordConfig struct {
	Token            string `json:"token"`
	AppID            string `json:"appId"`
	GuildID          string `json:"guildId"`
	SummaryChannelID string `json:"summaryChannelId"`
}

type ProviderConfig struct {
	APIKey  string `json:"apiKey"`
	BaseURL string `json:"baseUrl,omitempty"`
	Model   string `json:"model,omitempty"`
}

type SummaryConfig struct {
	RateLimitHours int    `json:"rateLimitHours"`
	MaxHours       int    `json:"maxHours"`
	MaxTokens      int    `json:"maxTokens"`
	PageSize       int    `json:"pageSize"`
	DBPath         string `json:"dbPath,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			BaseURL: DefaultBaseURL,
			Model:   DefaultModel,
		},
		Summary: SummaryConfig{
			RateLimitHours: DefaultRateLimitHours,
			MaxHours:       DefaultMaxHours,
			MaxTokens:      DefaultMaxTokens,
			PageSize:       DefaultPageSize,
			DBPath:         filepath.Join(ConfigDir(), "summaries.db"),
		},
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".recap")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		cfg.Discord.Token = token
	}
	if appID := os.Getenv("RECAP_APP_ID"); appID != "" {
		cfg.Discord.AppID = appID
	}
	if guildID := os.Getenv("RECAP_GUILD_ID"); guildID != "" {
		cfg.Discord.GuildID = guildID
	}
	if channelID := os.Getenv("SUMMARY_CHANNEL_ID"); channelID != "" {
		cfg.Discord.SummaryChannelID = channelID
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.Provider.APIKey = key
	}
	if url := os.Getenv("RECAP_BASE_URL"); url != "" {
		cfg.Provider.BaseURL = url
	}
	if model := os.Getenv("RECAP_MODEL"); model != "" {
		cfg.Provider.Model = model
	}
	if hours := os.Getenv("RECAP_RATE_LIMIT_HOURS"); hours != "" {
		if parsed, err := strconv.Atoi(hours); err == nil {
			cfg.Summary.RateLimitHours = parsed
		}
	}
	if hours := os.Getenv("RECAP_MAX_HOURS"); hours != "" {
		if parsed, err := strconv.Atoi(hours); err == nil {
			cfg.Summary.MaxHours = parsed
		}
	}
	if tokens := os.Getenv("RECAP_MAX_TOKENS"); tokens != "" {
		if parsed, err := strconv.Atoi(tokens); err == nil {
			cfg.Summary.MaxTokens = parsed
		}
	}
	if dbPath := os.Getenv("RECAP_DB_PATH"); dbPath != "" {
		cfg.Summary.DBPath = dbPath
	}

	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = DefaultBaseURL
	}
	if cfg.Provider.Model == "" {
		cfg.Provider.Model = DefaultModel
	}
	if cfg.Summary.RateLimitHours <= 0 {
		cfg.Summary.RateLimitHours = DefaultRateLimitHours
	}
	if cfg.Summary.MaxHours <= 0 {
		cfg.Summary.MaxHours = DefaultMaxHours
	}
	if cfg.Summary.MaxTokens <= 0 {
		cfg.Summary.MaxTokens = DefaultMaxTokens
	}
	if cfg.Summary.PageSize <= 0 {
		cfg.Summary.PageSize = DefaultPageSize
	}
	if cfg.Summary.DBPath == "" {
		cfg.Summary.DBPath = DefaultConfig().Summary.DBPath
	}

	return cfg, nil
}

// Validate checks the credentials serve needs. register reads the discord
// fields directly and does its own checks.
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("discord token is required (set DISCORD_TOKEN)")
	}
	if c.Provider.APIKey == "" {
		return fmt.Errorf("provider api key is required (set OPENAI_API_KEY)")
	}
	if c.Discord.SummaryChannelID == "" {
		return fmt.Errorf("summary channel id is required (set SUMMARY_CHANNEL_ID)")
	}
	return nil
}

func SaveConfig(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(ConfigPath(), data, 0644)
}
