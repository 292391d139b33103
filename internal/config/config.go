// config - источник загрузки конфигурации library-client.
//
// Источники (по убыванию приоритета):
//  1. явный путь --config;
//  2. CONFIG_PATH;
//  3. ./local.yaml;
//  4. только ENV (cleanenv).
//
// Файл .env, если он есть, подгружается в окружение до чтения (см. cmd).
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/pribylovaa/go-library-client/internal/storage"
)

// Драйверы хранилища токена.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// ErrInvalidConfig - конфигурация прочитана, но не прошла проверку.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	API      APIConfig     `yaml:"api"`
	Storage  StorageConfig `yaml:"storage"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// APIConfig - REST-бэкенд библиотеки.
type APIConfig struct {
	BaseURL   string `yaml:"base_url"   env:"API_BASE_URL"   env-default:"http://127.0.0.1:8080"`
	UserAgent string `yaml:"user_agent" env:"API_USER_AGENT" env-default:"library-client"`
}

// StorageConfig - где хранится токен между запусками.
type StorageConfig struct {
	Driver      string `yaml:"driver"       env:"STORAGE_DRIVER"       env-default:"file"`
	Key         string `yaml:"key"          env:"STORAGE_KEY"          env-default:"token"`
	Dir         string `yaml:"dir"          env:"STORAGE_DIR"`
	SQLitePath  string `yaml:"sqlite_path"  env:"STORAGE_SQLITE_PATH"`
	RedisURL    string `yaml:"redis_url"    env:"STORAGE_REDIS_URL"`
	RedisPrefix string `yaml:"redis_prefix" env:"STORAGE_REDIS_PREFIX" env-default:"library:session:"`
}

// TokenDir - каталог file-драйвера. Пустой Dir означает
// <user config dir>/library-client.
func (s StorageConfig) TokenDir() (string, error) {
	if s.Dir != "" {
		return s.Dir, nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}

	return filepath.Join(base, "library-client"), nil
}

// DatabasePath - файл sqlite-драйвера. По умолчанию лежит в TokenDir.
func (s StorageConfig) DatabasePath() (string, error) {
	if s.SQLitePath != "" {
		return s.SQLitePath, nil
	}

	dir, err := s.TokenDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, "session.db"), nil
}

// TimeoutConfig - таймаут одного запроса к бэкенду.
type TimeoutConfig struct {
	Request time.Duration `yaml:"request" env:"REQUEST_TIMEOUT" env-default:"15s"`
}

// Validate проверяет значения, которые cleanenv проверить не может.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: api.base_url %q", ErrInvalidConfig, c.API.BaseURL)
	}

	if err := storage.ValidateKey(c.Storage.Key); err != nil {
		return fmt.Errorf("%w: storage.key %q", ErrInvalidConfig, c.Storage.Key)
	}

	switch c.Storage.Driver {
	case DriverFile, DriverSQLite, DriverMemory:
	case DriverRedis:
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("%w: storage.redis_url is required for redis driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage.driver %q", ErrInvalidConfig, c.Storage.Driver)
	}

	if c.Timeouts.Request < 0 {
		return fmt.Errorf("%w: negative timeouts.request", ErrInvalidConfig)
	}

	return nil
}

// MustLoad - паника при ошибке загрузки.
func MustLoad(path string) *Config {
	cfg, err := Load(path)

	if err != nil {
		panic(err)
	}

	return cfg
}

// Load читает конфигурацию по приоритету источников и проверяет её.
func Load(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func read(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 1) --config
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml
	if _, err := os.Stat("local.yaml"); err == nil {
		return tryRead("local.yaml")
	}

	// 4) только ENV
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return &cfg, nil
}
