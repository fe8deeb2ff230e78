package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL string

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	Issuer    string
	Audience  string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ResetTokenTTL   time.Duration

	PasswordPepper string

	HTTPAddress      string
	AllowedOrigins   []string
	AllowCredentials bool
}

// Load reads configuration from the environment, falling back to an
// optional config.json in the working directory. Missing required keys
// fail fast at startup.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	for _, key := range []string{
		"DATABASE_URL", "REDIS_ADDRESS", "REDIS_PASSWORD", "REDIS_DB",
		"JWT_SECRET", "JWT_ISSUER", "JWT_AUDIENCE",
		"ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "RESET_TOKEN_TTL",
		"PASSWORD_PEPPER", "HTTP_ADDRESS",
		"ALLOWED_ORIGINS", "ALLOW_CREDENTIALS",
	} {
		if err := viper.BindEnv(key); err != nil {
			return nil, err
		}
	}

	viper.SetDefault("ACCESS_TOKEN_TTL", "1h")
	viper.SetDefault("REFRESH_TOKEN_TTL", "168h")
	viper.SetDefault("RESET_TOKEN_TTL", "1h")
	viper.SetDefault("HTTP_ADDRESS", ":8080")
	viper.SetDefault("JWT_ISSUER", "workflow-backend")
	viper.SetDefault("JWT_AUDIENCE", "workflow-api")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		DatabaseURL:      viper.GetString("DATABASE_URL"),
		RedisAddress:     viper.GetString("REDIS_ADDRESS"),
		RedisPassword:    viper.GetString("REDIS_PASSWORD"),
		RedisDB:          viper.GetInt("REDIS_DB"),
		JWTSecret:        viper.GetString("JWT_SECRET"),
		Issuer:           viper.GetString("JWT_ISSUER"),
		Audience:         viper.GetString("JWT_AUDIENCE"),
		AccessTokenTTL:   viper.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL:  viper.GetDuration("REFRESH_TOKEN_TTL"),
		ResetTokenTTL:    viper.GetDuration("RESET_TOKEN_TTL"),
		PasswordPepper:   viper.GetString("PASSWORD_PEPPER"),
		HTTPAddress:      viper.GetString("HTTP_ADDRESS"),
		AllowedOrigins:   viper.GetStringSlice("ALLOWED_ORIGINS"),
		AllowCredentials: viper.GetBool("ALLOW_CREDENTIALS"),
	}

	for _, required := range []struct {
		key, val string
	}{
		{"DATABASE_URL", cfg.DatabaseURL},
		{"REDIS_ADDRESS", cfg.RedisAddress},
		{"JWT_SECRET", cfg.JWTSecret},
	} {
		if required.val == "" {
			return nil, fmt.Errorf("%s is not set", required.key)
		}
	}

	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, fmt.Errorf("token TTLs must be positive")
	}

	return cfg, nil
}
