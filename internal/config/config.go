// Package config loads CLI configuration from .unisql.yaml, UNISQL_* environment
// variables and .env files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/satishbabariya/unisql/internal/adapters/database"
	"github.com/satishbabariya/unisql/internal/core/schema"
	"github.com/satishbabariya/unisql/internal/logging"
)

const (
	// FileName is the configuration file name without extension.
	FileName = ".unisql"
	// EnvPrefix prefixes every configuration environment variable.
	EnvPrefix = "UNISQL"
)

// Config is the resolved CLI configuration.
type Config struct {
	Provider string     `mapstructure:"provider"`
	URL      string     `mapstructure:"url"`
	Metadata string     `mapstructure:"metadata"`
	Pool     PoolConfig `mapstructure:"pool"`
	Log      LogConfig  `mapstructure:"log"`

	// TemplateCache is the number of compiled templates kept per session.
	TemplateCache int `mapstructure:"template_cache"`

	// File is the configuration file that was read, if any.
	File string `mapstructure:"-"`
}

// PoolConfig holds the settings handed to database/sql.
type PoolConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

// LogConfig configures the CLI logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Options controls where Load looks for configuration.
type Options struct {
	// File is an explicit configuration file. When set, it must exist.
	File string
	// Dir is the working directory searched for .unisql.yaml and .env files.
	// Defaults to the process working directory.
	Dir string
	// Home is the user's home directory. Defaults to homedir.Dir().
	Home string
}

func defaults() map[string]any {
	pool := database.DefaultConfig()
	return map[string]any{
		"provider":                "",
		"url":                     "",
		"metadata":                "",
		"template_cache":          64,
		"pool.max_open_conns":     pool.MaxOpenConns,
		"pool.max_idle_conns":     pool.MaxIdleConns,
		"pool.conn_max_lifetime":  pool.ConnMaxLifetime,
		"pool.conn_max_idle_time": pool.ConnMaxIdleTime,
		"pool.connect_timeout":    pool.ConnectTimeout,
		"log.level":               "warn",
		"log.pretty":              true,
	}
}

// envName returns the environment variable for a configuration key.
func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Load resolves the configuration. Precedence, highest first: .env.local,
// the process environment, .env, the configuration file, defaults.
// DATABASE_URL is used when no url is configured.
func Load(fs afero.Fs, opts Options) (*Config, error) {
	if opts.Dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		opts.Dir = wd
	}
	if opts.Home == "" {
		if home, err := homedir.Dir(); err == nil {
			opts.Home = home
		}
	}

	v := viper.New()
	v.SetFs(fs)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	if opts.File != "" {
		file, err := homedir.Expand(opts.File)
		if err != nil {
			return nil, fmt.Errorf("failed to expand config path: %w", err)
		}
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(opts.Dir)
		if opts.Home != "" {
			v.AddConfigPath(opts.Home)
			v.AddConfigPath(filepath.Join(opts.Home, ".config", "unisql"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	base, err := readEnvFile(fs, filepath.Join(opts.Dir, ".env"))
	if err != nil {
		return nil, err
	}
	local, err := readEnvFile(fs, filepath.Join(opts.Dir, ".env.local"))
	if err != nil {
		return nil, err
	}
	lookup := func(name string) string {
		if value := local[name]; value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return base[name]
	}

	for key := range defaults() {
		name := envName(key)
		if local[name] != "" || (os.Getenv(name) == "" && base[name] != "") {
			v.Set(key, lookup(name))
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if cfg.URL == "" {
		cfg.URL = lookup("DATABASE_URL")
	}
	if cfg.Metadata != "" {
		if cfg.Metadata, err = homedir.Expand(cfg.Metadata); err != nil {
			return nil, fmt.Errorf("failed to expand metadata path: %w", err)
		}
		if !filepath.IsAbs(cfg.Metadata) {
			base := opts.Dir
			if cfg.File != "" {
				base = filepath.Dir(cfg.File)
			}
			cfg.Metadata = filepath.Join(base, cfg.Metadata)
		}
	}
	return cfg, nil
}

// readEnvFile parses a dotenv file. A missing file yields no variables.
func readEnvFile(fs afero.Fs, path string) (map[string]string, error) {
	data, err := afero.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	env, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return env, nil
}

// Database returns the adapter configuration.
func (c *Config) Database() database.Config {
	return database.Config{
		Provider:        c.Provider,
		URL:             c.URL,
		MaxOpenConns:    c.Pool.MaxOpenConns,
		MaxIdleConns:    c.Pool.MaxIdleConns,
		ConnMaxLifetime: c.Pool.ConnMaxLifetime,
		ConnMaxIdleTime: c.Pool.ConnMaxIdleTime,
		ConnectTimeout:  c.Pool.ConnectTimeout,
	}
}

// Logging returns the logger configuration writing to out.
func (c *Config) Logging(out io.Writer) logging.Config {
	return logging.Config{Level: c.Log.Level, Pretty: c.Log.Pretty, Output: out}
}

// LoadMetadata reads the configured mapping document.
func (c *Config) LoadMetadata(fs afero.Fs) (*schema.MetadataRegistry, error) {
	if c.Metadata == "" {
		return nil, fmt.Errorf("no mapping document configured (set metadata in %s.yaml or %s)", FileName, envName("metadata"))
	}
	f, err := fs.Open(c.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to open mapping document: %w", err)
	}
	defer f.Close()
	return schema.LoadYAML(f)
}

// Save writes cfg as YAML to path, creating parent directories.
func Save(fs afero.Fs, cfg *Config, path string) error {
	path, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("failed to expand config path: %w", err)
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetFs(fs)
	v.Set("provider", cfg.Provider)
	v.Set("url", cfg.URL)
	v.Set("metadata", cfg.Metadata)
	v.Set("template_cache", cfg.TemplateCache)
	v.Set("pool.max_open_conns", cfg.Pool.MaxOpenConns)
	v.Set("pool.max_idle_conns", cfg.Pool.MaxIdleConns)
	v.Set("pool.conn_max_lifetime", cfg.Pool.ConnMaxLifetime.String())
	v.Set("pool.conn_max_idle_time", cfg.Pool.ConnMaxIdleTime.String())
	v.Set("pool.connect_timeout", cfg.Pool.ConnectTimeout.String())
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.pretty", cfg.Log.Pretty)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
