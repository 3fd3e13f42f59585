package lingokeeper

import (
	"fmt"
	"os"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Config holds all lingokeeper configuration.
type Config struct {
	DBPath   string `yaml:"db_path"`
	ModsRoot string `yaml:"mods_root"`
	// Language is the BCP-47 tag passed to the translation collaborator.
	Language string `yaml:"language"`
	// AllowEmptyMessage lets Sync proceed without a user-supplied message.
	AllowEmptyMessage bool `yaml:"allow_empty_message"`

	Cache CacheConfig `yaml:"cache"`
	Admin AdminConfig `yaml:"admin"`
}

// CacheConfig controls diff-cache retention.
type CacheConfig struct {
	EvictDays int `yaml:"evict_days"`
}

// AdminConfig controls the HTTP admin API.
type AdminConfig struct {
	Addr string `yaml:"addr"`
}

func (c *Config) defaults() {
	if c.DBPath == "" {
		c.DBPath = "lingokeeper.db"
	}
	if c.ModsRoot == "" {
		c.ModsRoot = "."
	}
	if c.Language == "" {
		c.Language = "zh-CN"
	}
	if c.Cache.EvictDays <= 0 {
		c.Cache.EvictDays = 30
	}
	if c.Admin.Addr == "" {
		c.Admin.Addr = "127.0.0.1:8175"
	}
}

// Validate checks the parts of the config that fail late and confusingly if
// left wrong, currently just the language tag.
func (c *Config) Validate() error {
	if _, err := language.Parse(c.Language); err != nil {
		return fmt.Errorf("lingokeeper: invalid language %q: %w", c.Language, err)
	}
	return nil
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
