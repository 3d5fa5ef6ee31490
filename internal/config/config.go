package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL  string       `mapstructure:"database_url"`
	ServerPort   string       `mapstructure:"server_port"`
	SessionKey   string       `mapstructure:"session_key"`
	SecureCookie bool         `mapstructure:"secure_cookie"`
	CORSOrigin   string       `mapstructure:"cors_origin"`
	Login        LoginConfig  `mapstructure:"login"`
	Housekeeping Housekeeping `mapstructure:"housekeeping"`
}

type LoginConfig struct {
	RatePerMinute int `mapstructure:"rate_per_minute"`
	Burst         int `mapstructure:"burst"`
}

type Housekeeping struct {
	Interval time.Duration `mapstructure:"interval"`
}

// Load reads configuration from config.yaml with RAM_-prefixed environment
// overrides. A local .env file is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("RAM")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("Error reading config file: %v", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("Error unmarshalling config: %v", err)
	}

	// Fallback defaults
	if config.ServerPort == "" {
		config.ServerPort = "8080"
	}
	if config.CORSOrigin == "" {
		config.CORSOrigin = "http://localhost:3000"
	}
	if config.Login.RatePerMinute <= 0 {
		config.Login.RatePerMinute = 10
	}
	if config.Login.Burst <= 0 {
		config.Login.Burst = 5
	}
	if config.Housekeeping.Interval <= 0 {
		config.Housekeeping.Interval = time.Hour
	}

	if config.SessionKey == "" {
		log.Fatal("Session key must be set in the config file")
	}
	if config.DatabaseURL == "" {
		log.Fatal("Database URL must be set in the config file")
	}

	return &config
}
