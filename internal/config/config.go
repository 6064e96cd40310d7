/**
 * @description
 * This file handles configuration management for the subscription tracker.
 * It uses the 'viper' library to load configuration from environment variables,
 * with defaults for every optional setting. Local .env files are loaded by
 * the binaries through godotenv before this runs.
 */
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration shared by the API server, the scheduler and the report CLI.
type Config struct {
	ServerPort             string `mapstructure:"SERVER_PORT"`
	DatabaseURL            string `mapstructure:"DATABASE_URL"`
	JWTSecret              string `mapstructure:"JWT_SECRET"`
	JWTTTLHours            int    `mapstructure:"JWT_TTL_HOURS"`
	CORSAllowedOrigins     string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RedisURL               string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix   string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	AuthRateLimitPerMinute int    `mapstructure:"AUTH_RATE_LIMIT_PER_MINUTE"`
	TrustedProxies         string `mapstructure:"TRUSTED_PROXIES"`
	RabbitMQURL            string `mapstructure:"RABBITMQ_URL"`
	ReminderExchange       string `mapstructure:"REMINDER_EXCHANGE"`
	ReminderRoutingKey     string `mapstructure:"REMINDER_ROUTING_KEY"`
	ReminderJobSchedule    string `mapstructure:"REMINDER_JOB_SCHEDULE"`
	RolloverJobSchedule    string `mapstructure:"ROLLOVER_JOB_SCHEDULE"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("JWT_TTL_HOURS", 168)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "https://*,http://*")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "subtrack:rate_limit")
	viper.SetDefault("AUTH_RATE_LIMIT_PER_MINUTE", 10)
	viper.SetDefault("REMINDER_EXCHANGE", "subtrack.reminders")
	viper.SetDefault("REMINDER_ROUTING_KEY", "subscription.reminder.due")
	viper.SetDefault("REMINDER_JOB_SCHEDULE", "*/15 * * * *") // Every 15 minutes.
	viper.SetDefault("ROLLOVER_JOB_SCHEDULE", "5 0 * * *")    // At 00:05 every day.
	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("JWT_TTL_HOURS")
	_ = viper.BindEnv("CORS_ALLOWED_ORIGINS")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("AUTH_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("TRUSTED_PROXIES")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("REMINDER_EXCHANGE")
	_ = viper.BindEnv("REMINDER_ROUTING_KEY")
	_ = viper.BindEnv("REMINDER_JOB_SCHEDULE")
	_ = viper.BindEnv("ROLLOVER_JOB_SCHEDULE")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Platform-provided PORT takes precedence.
	if port := os.Getenv("PORT"); port != "" {
		config.ServerPort = port
	}

	if strings.TrimSpace(config.DatabaseURL) == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if config.JWTTTLHours <= 0 {
		return nil, fmt.Errorf("JWT_TTL_HOURS must be positive, got %d", config.JWTTTLHours)
	}
	if _, err := config.TrustedProxyPrefixes(); err != nil {
		return nil, err
	}

	return &config, nil
}

// ValidateAPI checks the settings only the HTTP server needs.
func (c *Config) ValidateAPI() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	return nil
}

// JWTTTL is the access token lifetime.
func (c *Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLHours) * time.Hour
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSAllowedOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// TrustedProxyPrefixes parses TRUSTED_PROXIES, a comma-separated list of IPs
// or CIDRs whose forwarding headers are believed. Empty means no proxy is trusted.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, entry := range strings.Split(c.TrustedProxies, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: invalid CIDR %q", entry)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: invalid IP %q", entry)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}
