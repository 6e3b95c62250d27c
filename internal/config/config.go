/**
 * @description
 * This package handles the configuration management for the service. It uses
 * the Viper library to read configuration from environment variables (plus an
 * optional .env file), providing a centralized way to manage settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the banking service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort              string `mapstructure:"SERVER_PORT"`
	DatabaseURL             string `mapstructure:"DATABASE_URL"`
	RedisURL                string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix    string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL             string `mapstructure:"RABBITMQ_URL"`
	JWTSecret               string `mapstructure:"JWT_SECRET"`
	SessionTTLHours         int    `mapstructure:"SESSION_TTL_HOURS"`
	BcryptCost              int    `mapstructure:"BCRYPT_COST"`
	LoginRateLimitPerMinute int    `mapstructure:"LOGIN_RATE_LIMIT_PER_MINUTE"`
	LedgerLockTimeoutMS     int    `mapstructure:"LEDGER_LOCK_TIMEOUT_MS"`
	FrontendURL             string `mapstructure:"FRONTEND_URL"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "banking:rate_limit")
	viper.SetDefault("SESSION_TTL_HOURS", 24)
	viper.SetDefault("BCRYPT_COST", 12)
	viper.SetDefault("LOGIN_RATE_LIMIT_PER_MINUTE", 10)
	viper.SetDefault("LEDGER_LOCK_TIMEOUT_MS", 5000)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT", "SERVER_PORT", "PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("JWT_SECRET", "JWT_SECRET", "SESSION_SIGNING_SECRET")
	_ = viper.BindEnv("SESSION_TTL_HOURS")
	_ = viper.BindEnv("BCRYPT_COST")
	_ = viper.BindEnv("LOGIN_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("LEDGER_LOCK_TIMEOUT_MS")
	_ = viper.BindEnv("FRONTEND_URL")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	config.JWTSecret = strings.TrimSpace(config.JWTSecret)
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "banking:rate_limit"
	}
	if config.SessionTTLHours <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive session ttl; using 24h\" hours=%d", config.SessionTTLHours)
		config.SessionTTLHours = 24
	}
	if config.LedgerLockTimeoutMS <= 0 {
		config.LedgerLockTimeoutMS = 5000
	}
	if config.LoginRateLimitPerMinute < 0 {
		config.LoginRateLimitPerMinute = 0
	}

	return
}
