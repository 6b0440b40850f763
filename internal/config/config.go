package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Data struct {
		Keys   string `yaml:"keys"`   // compiled dataset JSON
		DB     string `yaml:"db"`     // SQLite snapshot database
		Assets string `yaml:"assets"` // source asset directory for builds
	} `yaml:"data"`
	AI struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"` // explanation model
	} `yaml:"ai"`
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Data.Keys = "data/keys_optimized.json"
	cfg.Data.DB = "soilkey.db"
	cfg.Data.Assets = "assets"
	cfg.AI.Model = "gemini-2.5-flash-lite"
	return cfg
}

// LoadConfig reads the YAML config file, falling back to defaults when
// the file is absent, then applies .env and environment overrides.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	file, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if keys := os.Getenv("SOILKEY_DATA"); keys != "" {
		cfg.Data.Keys = keys
	}
	if db := os.Getenv("SOILKEY_DB"); db != "" {
		cfg.Data.DB = db
	}
	if apiKey := os.Getenv("SOILKEY_API_KEY"); apiKey != "" {
		cfg.AI.APIKey = apiKey
	}
	if model := os.Getenv("SOILKEY_AI_MODEL"); model != "" {
		cfg.AI.Model = model
	}

	return cfg, nil
}
