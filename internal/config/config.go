// Package config loads server settings from an optional YAML file with
// environment-variable overrides. Environment always wins.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr      string
	APIBaseURL    string
	UploadBaseURL string
	UploadDir     string
	CachePath     string
	CacheInterval time.Duration
	AutoRefresh   bool
	SessionPath   string
	KYCBaseURL    string
	JWTSecret     string
	SecretHash    string
	GELFAddr      string
	UploadRPS     float64
	UploadBurst   int
}

// fileConfig is the YAML shape. Durations arrive as strings so the
// file can say "30m" instead of nanoseconds.
type fileConfig struct {
	Addr          string  `yaml:"addr"`
	APIBaseURL    string  `yaml:"api_base_url"`
	UploadBaseURL string  `yaml:"upload_base_url"`
	UploadDir     string  `yaml:"upload_dir"`
	CachePath     string  `yaml:"cache_path"`
	CacheInterval string  `yaml:"cache_interval"`
	AutoRefresh   *bool   `yaml:"auto_refresh"`
	SessionPath   string  `yaml:"session_path"`
	KYCBaseURL    string  `yaml:"kyc_base_url"`
	JWTSecret     string  `yaml:"jwt_secret"`
	SecretHash    string  `yaml:"secret_hash"`
	GELFAddr      string  `yaml:"gelf_addr"`
	UploadRPS     float64 `yaml:"upload_rps"`
	UploadBurst   int     `yaml:"upload_burst"`
}

// Load reads the YAML file named by ONBOARD_CONFIG (if set), then
// applies environment overrides on top of the defaults.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:      ":8080",
		APIBaseURL:    "http://localhost:3001",
		UploadDir:     "uploads",
		CachePath:     "data/forms-cache.json",
		CacheInterval: time.Hour,
		SessionPath:   "data/session.json",
		JWTSecret:     "onboard-dev-secret-change-me",
		UploadRPS:     2,
		UploadBurst:   5,
	}

	if path := os.Getenv("ONBOARD_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		if err := apply(cfg, fc); err != nil {
			return nil, err
		}
	}

	cfg.HTTPAddr = getEnv("ONBOARD_ADDR", cfg.HTTPAddr)
	cfg.APIBaseURL = getEnv("ONBOARD_API_URL", cfg.APIBaseURL)
	cfg.UploadBaseURL = getEnv("ONBOARD_UPLOAD_URL", cfg.UploadBaseURL)
	cfg.UploadDir = getEnv("ONBOARD_UPLOAD_DIR", cfg.UploadDir)
	cfg.CachePath = getEnv("ONBOARD_CACHE_PATH", cfg.CachePath)
	cfg.SessionPath = getEnv("ONBOARD_SESSION_PATH", cfg.SessionPath)
	cfg.KYCBaseURL = getEnv("ONBOARD_KYC_URL", cfg.KYCBaseURL)
	cfg.JWTSecret = getEnv("ONBOARD_JWT_SECRET", cfg.JWTSecret)
	cfg.SecretHash = getEnv("ONBOARD_SECRET_HASH", cfg.SecretHash)
	cfg.GELFAddr = getEnv("ONBOARD_GELF_ADDR", cfg.GELFAddr)
	if v := os.Getenv("ONBOARD_CACHE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse ONBOARD_CACHE_INTERVAL: %w", err)
		}
		cfg.CacheInterval = d
	}
	if v := os.Getenv("ONBOARD_AUTO_REFRESH"); v != "" {
		cfg.AutoRefresh = v == "1" || v == "true"
	}
	// Upload URLs default to the API host.
	if cfg.UploadBaseURL == "" {
		cfg.UploadBaseURL = cfg.APIBaseURL
	}
	return cfg, nil
}

func apply(cfg *Config, fc fileConfig) error {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.HTTPAddr, fc.Addr)
	set(&cfg.APIBaseURL, fc.APIBaseURL)
	set(&cfg.UploadBaseURL, fc.UploadBaseURL)
	set(&cfg.UploadDir, fc.UploadDir)
	set(&cfg.CachePath, fc.CachePath)
	set(&cfg.SessionPath, fc.SessionPath)
	set(&cfg.KYCBaseURL, fc.KYCBaseURL)
	set(&cfg.JWTSecret, fc.JWTSecret)
	set(&cfg.SecretHash, fc.SecretHash)
	set(&cfg.GELFAddr, fc.GELFAddr)
	if fc.AutoRefresh != nil {
		cfg.AutoRefresh = *fc.AutoRefresh
	}
	if fc.CacheInterval != "" {
		d, err := time.ParseDuration(fc.CacheInterval)
		if err != nil {
			return fmt.Errorf("parse cache_interval: %w", err)
		}
		cfg.CacheInterval = d
	}
	if fc.UploadRPS > 0 {
		cfg.UploadRPS = fc.UploadRPS
	}
	if fc.UploadBurst > 0 {
		cfg.UploadBurst = fc.UploadBurst
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
