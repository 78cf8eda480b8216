package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	APIBaseURL     string        `mapstructure:"api_base_url"`
	AIChannelPath  string        `mapstructure:"ai_channel_path"`
	OrgName        string        `mapstructure:"org_name"`
	Port           string        `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	AITimeout      time.Duration `mapstructure:"ai_timeout"`
	DefaultAITask  string        `mapstructure:"default_ai_task"`

	StorageBackend string `mapstructure:"storage_backend"`
	StateFile      string `mapstructure:"state_file"`
	DatabaseURL    string `mapstructure:"database_url"`
	KVTable        string `mapstructure:"kv_table"`
	RedisAddr      string `mapstructure:"redis_addr"`
	RedisPrefix    string `mapstructure:"redis_prefix"`

	LogLevel string `mapstructure:"log_level"`
}

// Storage backends accepted by STORAGE_BACKEND.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

var keys = []string{
	"api_base_url",
	"ai_channel_path",
	"org_name",
	"port",
	"request_timeout",
	"ai_timeout",
	"default_ai_task",
	"storage_backend",
	"state_file",
	"database_url",
	"kv_table",
	"redis_addr",
	"redis_prefix",
	"log_level",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_base_url", "http://localhost:8001")
	v.SetDefault("ai_channel_path", "/collaboration-ai/ws")
	v.SetDefault("org_name", "IDEAL Labs")
	v.SetDefault("port", "8081")
	v.SetDefault("request_timeout", 15*time.Second)
	v.SetDefault("ai_timeout", 2*time.Minute)
	v.SetDefault("default_ai_task", "Find collaboration opportunities for IDEAL Lab")
	v.SetDefault("storage_backend", BackendFile)
	v.SetDefault("state_file", ".labdash.json")
	v.SetDefault("database_url", "")
	v.SetDefault("kv_table", "dashboard_kv")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_prefix", "labdash:")
	v.SetDefault("log_level", "info")
}

// Load reads configuration from the environment and, when cfgFile is set,
// from that YAML file. Environment variables win over the file.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range keys {
		// Plain upper-case names, same as the .env file uses.
		_ = v.BindEnv(key, strings.ToUpper(key))
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config %s: %w", cfgFile, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case BackendFile, BackendMemory, BackendRedis:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("storage backend %q requires DATABASE_URL", c.StorageBackend)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.AITimeout <= 0 {
		return fmt.Errorf("ai timeout must be positive, got %s", c.AITimeout)
	}
	if !strings.HasPrefix(c.APIBaseURL, "http://") && !strings.HasPrefix(c.APIBaseURL, "https://") {
		return fmt.Errorf("api base url must be http(s), got %q", c.APIBaseURL)
	}
	return nil
}

// AIChannelURL turns the REST base URL into the websocket URL of the AI
// suggestion channel.
func (c *Config) AIChannelURL() string {
	base := strings.TrimSuffix(c.APIBaseURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + c.AIChannelPath
}
