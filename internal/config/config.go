package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Remote struct {
	Host  string `koanf:"host" validate:"omitempty,url"`
	Token string `koanf:"token"`
}

type Database struct {
	Path string `koanf:"path" validate:"required"`
}

type Sync struct {
	DefaultBookmarkLimit    int            `koanf:"default_bookmark_limit" validate:"min=1"`
	PerFolderBookmarkLimits map[string]int `koanf:"per_folder_bookmark_limits" validate:"dive,min=1"`
}

type Config struct {
	Remote   Remote   `koanf:"remote"`
	Database Database `koanf:"database"`
	Sync     Sync     `koanf:"sync"`
	LogLevel string   `koanf:"log_level" validate:"oneof=error warn info debug"`
}

// Configured reports whether remote credentials are present. Without
// them the local store still works; only syncing is unavailable.
func (r Remote) Configured() bool {
	return r.Host != "" && r.Token != ""
}

func (c *Config) Validate() error {
	validate := validator.New()
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return fmt.Errorf("configuration validation failed: %v", validationErrors)
	}

	return err
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	parser := yaml.Parser()

	if err := setDefaultValues(k); err != nil {
		return nil, err
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaultValues(k *koanf.Koanf) error {
	return k.Load(confmap.Provider(map[string]any{
		"database.path":               "marginalia.db",
		"sync.default_bookmark_limit": 10,
		"sync.per_folder_bookmark_limits": map[string]int{
			"unread": 250,
		},
		"log_level": "info",
	}, "."), nil)
}
