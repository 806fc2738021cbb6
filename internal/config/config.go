// Package config loads the YAML configuration with sensible defaults for
// every field, so an empty file is a valid config.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Server      Server    `yaml:"server"`
	Database    Database  `yaml:"database"`
	Fetch       Fetch     `yaml:"fetch"`
	Summarize   Summarize `yaml:"summarize"`
	Digest      Digest    `yaml:"digest"`
	Competitors []Seed    `yaml:"competitors"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Database struct {
	Path string `yaml:"path"`
}

type Fetch struct {
	RSSLimit       int `yaml:"rss_limit"`
	Workers        int `yaml:"workers"`
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

type Summarize struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	OllamaURL   string `yaml:"ollama_url"`
	OpenAIModel string `yaml:"openai_model"`
	APIKeyEnv   string `yaml:"api_key_env"`
}

type Digest struct {
	Enabled   bool   `yaml:"enabled"`
	Day       string `yaml:"day"`
	Recipient string `yaml:"recipient"`
	SMTP      SMTP   `yaml:"smtp"`
}

type SMTP struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Sender      string `yaml:"sender"`
	Username    string `yaml:"username"`
	PasswordEnv string `yaml:"password_env"`
}

// Seed is a competitor created at startup if it does not exist yet.
type Seed struct {
	Name        string `yaml:"name"`
	Website     string `yaml:"website"`
	RSS         string `yaml:"rss"`
	Description string `yaml:"description"`
}

// ConfigDir returns the XDG config directory for competetrack.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "competetrack")
}

// DataDir returns the XDG data directory for competetrack.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "competetrack")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/competetrack/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'competetrack init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Server: Server{Port: 8000},
		Fetch: Fetch{
			RSSLimit:       5,
			Workers:        3,
			TimeoutSeconds: 15,
		},
		Summarize: Summarize{
			Provider:    "ollama",
			Model:       "gemma:2b",
			OllamaURL:   "http://localhost:11434",
			OpenAIModel: "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
		},
		Digest: Digest{
			Day:  "Monday",
			SMTP: SMTP{Host: "smtp.gmail.com", Port: 587, PasswordEnv: "SMTP_PASSWORD"},
		},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.Competitors) == 0 {
		cfg.Competitors = DefaultCompetitors()
	}

	return cfg, nil
}

// DefaultCompetitors is the seed list used when the config names none.
func DefaultCompetitors() []Seed {
	return []Seed{
		{
			Name:        "TechCrunch",
			RSS:         "http://feeds.feedburner.com/TechCrunch/",
			Website:     "https://techcrunch.com",
			Description: "Leading technology news and startup coverage.",
		},
		{
			Name:        "The Verge",
			RSS:         "https://www.theverge.com/rss/index.xml",
			Website:     "https://www.theverge.com",
			Description: "Tech news, reviews, and culture.",
		},
		{
			Name:        "VentureBeat AI",
			RSS:         "https://venturebeat.com/category/ai/feed/",
			Website:     "https://venturebeat.com",
			Description: "Transformative technology news for business leaders.",
		},
	}
}

// DatabasePath returns the effective database path from config or the XDG
// default.
func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(DataDir(), "competetrack.db")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
