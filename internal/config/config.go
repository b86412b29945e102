package config

import (
	"os"
	"time"

	"quiz-hub/internal/domain"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Content struct {
		// Path is a YAML content pack used when Postgres is not configured.
		Path string `yaml:"path"`
		TTL  string `yaml:"ttl"`
	} `yaml:"content"`
	Log struct {
		Env string `yaml:"env"`
	} `yaml:"log"`
	Tuning domain.Tuning `yaml:"tuning"`
}

// Load reads YAML config from path, then applies environment overrides.
// Tuning values missing from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Config{Tuning: domain.DefaultTuning()}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyEnv()
	cfg.Tuning = cfg.Tuning.WithDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("POSTGRES_URL"); v != "" {
		c.Postgres.URL = v
	}
	if v := os.Getenv("CONTENT_PATH"); v != "" {
		c.Content.Path = v
	}
	if v := os.Getenv("LOG_ENV"); v != "" {
		c.Log.Env = v
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
