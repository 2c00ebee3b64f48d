package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Login    LoginConfig    `mapstructure:"login"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// BackendConfig holds MES backend API configuration
type BackendConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	AppKey     string        `mapstructure:"app_key"`
	APITimeout time.Duration `mapstructure:"api_timeout"`
}

// LoginConfig holds the fixed operator credentials used for the
// login step of the token exchange
type LoginConfig struct {
	Type     int    `mapstructure:"type"`
	Username string `mapstructure:"username"`
	Code     string `mapstructure:"code"`
	Password string `mapstructure:"password"`
}

// AuthConfig holds token acquisition configuration
type AuthConfig struct {
	// Code is an externally supplied authorization code. When set the
	// resolver skips login and exchanges it for a token directly.
	Code     string        `mapstructure:"code"`
	TokenKey string        `mapstructure:"token_key"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Override with environment variables
	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	// Backend defaults
	viper.SetDefault("backend.base_url", "https://v3-feature.blacklake.cn/api")
	viper.SetDefault("backend.api_timeout", 30*time.Second)

	// Login defaults
	viper.SetDefault("login.type", 1)

	// Auth defaults
	viper.SetDefault("auth.token_key", "work_report_user_access_token")
	viper.SetDefault("auth.token_ttl", 24*time.Hour)

	// Database defaults
	viper.SetDefault("database.path", "data/workreport.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	// Sensitive credentials from environment
	viper.BindEnv("backend.app_key", "BACKEND_APP_KEY")
	viper.BindEnv("login.username", "LOGIN_USERNAME")
	viper.BindEnv("login.code", "LOGIN_CODE")
	viper.BindEnv("login.password", "LOGIN_PASSWORD")
	viper.BindEnv("auth.code", "AUTH_CODE")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.Backend.AppKey == "" {
		return fmt.Errorf("backend.app_key is required")
	}

	// Without an external authorization code the full login flow runs,
	// which needs the fixed credentials
	if c.Auth.Code == "" {
		if c.Login.Username == "" {
			return fmt.Errorf("login.username is required")
		}
		if c.Login.Password == "" {
			return fmt.Errorf("login.password is required")
		}
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}

	return nil
}
