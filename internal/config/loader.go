package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load reads settings from the environment, falling back to envFile and then
// to DefaultConfig. A missing envFile is not an error; an empty path skips it.
// Environment variables always win over the file.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat %s: %w", envFile, err)
		}
	}

	cfg := Config{
		Database: DatabaseConfig{
			Driver:     strings.ToLower(strings.TrimSpace(v.GetString("store_driver"))),
			URL:        v.GetString("database_url"),
			Table:      v.GetString("repository_table"),
			MemorySize: v.GetInt("memory_store_size"),
		},
		Upstream: UpstreamConfig{
			BaseURL:   strings.TrimRight(v.GetString("github_api_base_url"), "/"),
			Token:     v.GetString("github_token"),
			UserAgent: v.GetString("github_user_agent"),
			Timeout:   seconds(v.GetFloat64("github_api_timeout_seconds")),
		},
		Cache: CacheConfig{
			TTLSeconds: v.GetFloat64("cache_ttl_seconds"),
		},
		Server: ServerConfig{
			Port:               v.GetInt("port"),
			RateLimitRequests:  v.GetInt("rate_limit_requests"),
			RateLimitWindow:    seconds(v.GetFloat64("rate_limit_window_seconds")),
			CORSAllowedOrigins: splitList(v.GetString("cors_allowed_origins")),
			ShutdownTimeout:    seconds(v.GetFloat64("shutdown_timeout_seconds")),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
			Format: strings.ToLower(strings.TrimSpace(v.GetString("log_format"))),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("store_driver", d.Database.Driver)
	v.SetDefault("database_url", d.Database.URL)
	v.SetDefault("repository_table", d.Database.Table)
	v.SetDefault("memory_store_size", d.Database.MemorySize)

	v.SetDefault("github_api_base_url", d.Upstream.BaseURL)
	v.SetDefault("github_token", d.Upstream.Token)
	v.SetDefault("github_user_agent", d.Upstream.UserAgent)
	v.SetDefault("github_api_timeout_seconds", d.Upstream.Timeout.Seconds())

	v.SetDefault("cache_ttl_seconds", d.Cache.TTLSeconds)

	v.SetDefault("port", d.Server.Port)
	v.SetDefault("rate_limit_requests", d.Server.RateLimitRequests)
	v.SetDefault("rate_limit_window_seconds", d.Server.RateLimitWindow.Seconds())
	v.SetDefault("cors_allowed_origins", strings.Join(d.Server.CORSAllowedOrigins, ","))
	v.SetDefault("shutdown_timeout_seconds", d.Server.ShutdownTimeout.Seconds())

	v.SetDefault("log_level", d.Logging.Level)
	v.SetDefault("log_format", d.Logging.Format)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
