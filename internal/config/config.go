package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type LLM struct {
	Provider    string        `yaml:"provider"` // groq | openai | gemini
	APIKey      string        `yaml:"apiKey"`
	BaseURL     string        `yaml:"baseURL"`
	Model       string        `yaml:"model"`
	Temperature *float32      `yaml:"temperature"` // nil keeps the adapter default
	Timeout     time.Duration `yaml:"timeout"`
}

type Database struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslMode"`
	Path     string `yaml:"path"` // sqlite file
}

type Minio struct {
	Enabled    bool   `yaml:"enabled"`
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"accessKey"`
	SecretKey  string `yaml:"secretKey"`
	BucketName string `yaml:"bucketName"`
	Region     string `yaml:"region"`
	UseSSL     bool   `yaml:"useSSL"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type RateLimit struct {
	Backend    string `yaml:"backend"` // memory | redis | off
	Capacity   int    `yaml:"capacity"`
	RefillRate int    `yaml:"refillRate"` // tokens per second; redis allows Capacity per minute
}

type Config struct {
	Server struct {
		Port         int           `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"readTimeout"`
		WriteTimeout time.Duration `yaml:"writeTimeout"`
	} `yaml:"server"`

	LLM LLM `yaml:"llm"`

	Audit struct {
		Driver string `yaml:"driver"` // none | mysql | postgres | sqlite
	} `yaml:"audit"`

	Database Database `yaml:"database"`

	Minio Minio `yaml:"minio"`

	RateLimit RateLimit `yaml:"ratelimit"`

	Redis Redis `yaml:"redis"`

	Auth struct {
		APIKeys map[string]string `yaml:"apiKeys"` // client name -> key
	} `yaml:"auth"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"cors"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // json | console
	} `yaml:"log"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Load reads config.yaml (optional), the .env file (optional) and environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// env-only deployments
	default:
		return nil, err
	}
	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 90 * time.Second
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "groq"
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 60 * time.Second
	}
	if c.Audit.Driver == "" {
		c.Audit.Driver = "none"
	}
	if c.RateLimit.Backend == "" {
		c.RateLimit.Backend = "memory"
	}
	if c.RateLimit.Capacity == 0 {
		c.RateLimit.Capacity = 20
	}
	if c.RateLimit.RefillRate == 0 {
		c.RateLimit.RefillRate = 1
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// applyEnvOverrides reads the credential for the configured provider.
// An explicit REASON3_PROVIDER wins over the file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("REASON3_PROVIDER"); v != "" {
		c.LLM.Provider = strings.ToLower(v)
	}
	var keyVar string
	switch c.LLM.Provider {
	case "openai":
		keyVar = "OPENAI_API_KEY"
	case "gemini":
		keyVar = "GEMINI_API_KEY"
	default:
		keyVar = "GROQ_API_KEY"
	}
	if v := os.Getenv(keyVar); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("REASON3_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil && port > 0 {
			c.Server.Port = port
		}
	}
}

func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "groq", "openai", "gemini":
	default:
		return fmt.Errorf("unknown llm.provider %q (allowed: groq, openai, gemini)", c.LLM.Provider)
	}
	if t := c.LLM.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("llm.temperature %v out of range 0-2", *t)
	}
	switch c.Audit.Driver {
	case "none", "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown audit.driver %q (allowed: none, mysql, postgres, sqlite)", c.Audit.Driver)
	}
	switch c.RateLimit.Backend {
	case "memory", "redis", "off":
	default:
		return fmt.Errorf("unknown ratelimit.backend %q (allowed: memory, redis, off)", c.RateLimit.Backend)
	}
	if c.RateLimit.Backend == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("ratelimit.backend redis requires redis.addr")
	}
	return nil
}

// DemoMode reports whether no credential is configured.
func (c *Config) DemoMode() bool { return strings.TrimSpace(c.LLM.APIKey) == "" }

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq connection string.
func (c *Config) PostgresDSN() string {
	ssl := c.Database.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		ssl,
	)
}

// SQLitePath returns the sqlite file, defaulting to reason3.db.
func (c *Config) SQLitePath() string {
	if c.Database.Path == "" {
		return "reason3.db"
	}
	return c.Database.Path
}
