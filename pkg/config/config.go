package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Cache     CacheConfig
	Redis     RedisConfig
	Evidence  EvidenceConfig
	LLM       LLMConfig
	SQLite    SQLiteConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host          string
	Port          int
	ReadTimeout   int
	WriteTimeout  int
	BodyLimit     int
	IsDevelopment bool
}

type CacheConfig struct {
	// Backend is "memory" or "redis".
	Backend    string
	TTLSeconds int
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type EvidenceConfig struct {
	TimeoutMs    int
	SingleFlight bool
	Disabled     []string
}

func (c EvidenceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

type LLMConfig struct {
	Provider    string
	Model       string
	APIKey      string
	Temperature float32
	MaxTokens   int
	TimeoutSec  int
}

type SQLiteConfig struct {
	Path string
}

type RateLimitConfig struct {
	Enabled       bool
	MaxRequests   int
	WindowMinutes int
}

type CORSConfig struct {
	AllowOrigins []string
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/civic-india")

	return load(v)
}

// LoadFile reads configuration from an explicit path, still honouring
// environment overrides and defaults.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("CIVIC_INDIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("cache ttlSeconds must be positive, got %d", c.Cache.TTLSeconds)
	}
	if c.Evidence.TimeoutMs <= 0 {
		return fmt.Errorf("evidence timeoutMs must be positive, got %d", c.Evidence.TimeoutMs)
	}
	switch c.LLM.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("invalid llm provider %q", c.LLM.Provider)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 60)
	v.SetDefault("server.bodyLimit", 10485760)
	v.SetDefault("server.isDevelopment", false)

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttlSeconds", 1800)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("evidence.timeoutMs", 5000)
	v.SetDefault("evidence.singleFlight", false)
	v.SetDefault("evidence.disabled", []string{})

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", "gemini-pro")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.maxTokens", 1024)
	v.SetDefault("llm.timeoutSec", 30)

	v.SetDefault("sqlite.path", "./data/civic.db")

	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.maxRequests", 100)
	v.SetDefault("rateLimit.windowMinutes", 15)

	v.SetDefault("cors.allowOrigins", []string{"http://localhost:3000"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")
}
