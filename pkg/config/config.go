package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Retention struct {
		MessageHorizon time.Duration `yaml:"message_horizon"`
		PeerHorizon    time.Duration `yaml:"peer_horizon"`
		MaxMessages    int           `yaml:"max_messages"`
	} `yaml:"retention"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`

	TURN struct {
		Secret   string        `yaml:"secret"`
		TTL      time.Duration `yaml:"ttl"`
		URLs     []string      `yaml:"urls"`
		STUNURLs []string      `yaml:"stun_urls"`
	} `yaml:"turn"`

	Client struct {
		RelayURL        string        `yaml:"relay_url"`
		PollInterval    time.Duration `yaml:"poll_interval"`
		MaxPollInterval time.Duration `yaml:"max_poll_interval"`
		RequestTimeout  time.Duration `yaml:"request_timeout"`
	} `yaml:"client"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled    bool    `yaml:"enabled"`
		JaegerURL  string  `yaml:"jaeger_url"`
		SampleRate float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	RateLimiting struct {
		Enabled           bool    `yaml:"enabled"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rate_limiting"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	// Server
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}

	// Retention
	if c.Retention.MessageHorizon <= 0 {
		return fmt.Errorf("retention.message_horizon must be > 0")
	}
	if c.Retention.PeerHorizon <= 0 {
		return fmt.Errorf("retention.peer_horizon must be > 0")
	}
	if c.Retention.MaxMessages < 0 {
		return fmt.Errorf("retention.max_messages must be >= 0")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address must not be empty when redis.enabled=true")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.pool_size must be > 0 when redis.enabled=true")
		}
	}

	// TURN
	if len(c.TURN.URLs) > 0 {
		if c.TURN.Secret == "" {
			return fmt.Errorf("turn.secret must not be empty when turn.urls are set")
		}
		if c.TURN.TTL <= 0 {
			return fmt.Errorf("turn.ttl must be > 0 when turn.urls are set")
		}
	}

	// Client
	if c.Client.PollInterval <= 0 {
		return fmt.Errorf("client.poll_interval must be > 0")
	}
	if c.Client.MaxPollInterval < c.Client.PollInterval {
		return fmt.Errorf("client.max_poll_interval must be >= client.poll_interval")
	}
	if c.Client.RequestTimeout <= 0 {
		return fmt.Errorf("client.request_timeout must be > 0")
	}

	// Logging
	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	// Tracing
	if c.Tracing.Enabled {
		if c.Tracing.JaegerURL == "" {
			return fmt.Errorf("tracing.jaeger_url must not be empty when tracing.enabled=true")
		}
		if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be in [0, 1]")
		}
	}

	// Rate limiting
	if c.RateLimiting.Enabled {
		if c.RateLimiting.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.Burst <= 0 {
			return fmt.Errorf("rate_limiting.burst must be > 0 when rate limiting is enabled")
		}
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	// If file does not exist, fall back to defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":8080"
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = 30 * time.Second

	cfg.Retention.MessageHorizon = time.Hour
	cfg.Retention.PeerHorizon = time.Hour
	cfg.Retention.MaxMessages = 1000

	cfg.Redis.Enabled = false
	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.DB = 0
	cfg.Redis.PoolSize = 10

	cfg.TURN.Secret = ""
	cfg.TURN.TTL = 10 * time.Minute
	cfg.TURN.STUNURLs = []string{"stun:stun.l.google.com:19302"}

	cfg.Client.RelayURL = "http://localhost:8080"
	cfg.Client.PollInterval = time.Second
	cfg.Client.MaxPollInterval = 5 * time.Second
	cfg.Client.RequestTimeout = 10 * time.Second

	cfg.Monitoring.PrometheusEnabled = true

	cfg.Tracing.Enabled = false
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.SampleRate = 1.0

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.RequestsPerSecond = 50
	cfg.RateLimiting.Burst = 100

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("VIDLINK_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if url := os.Getenv("VIDLINK_RELAY_URL"); url != "" {
		c.Client.RelayURL = url
	}
	if level := os.Getenv("VIDLINK_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if secret := os.Getenv("VIDLINK_TURN_SECRET"); secret != "" {
		c.TURN.Secret = secret
	}
	if addr := os.Getenv("VIDLINK_REDIS_ADDRESS"); addr != "" {
		c.Redis.Address = addr
	}
}
