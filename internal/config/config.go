package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"

	ProviderOpenAI = "openai"
	ProviderCompat = "compat"
)

type Config struct {
	Env      string
	LogLevel slog.Level
	Server   ServerConfig
	Storage  StorageConfig
	Credits  CreditsConfig
	AI       AIConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type StorageConfig struct {
	Driver   string
	Path     string
	Database DatabaseConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
}

type CreditsConfig struct {
	DefaultBalance int64
	PlansFile      string
	CheckoutDelay  time.Duration
}

type AIConfig struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
}

type AuthConfig struct {
	DeviceSecret string
	Issuer       string
	DeviceTTL    time.Duration
}

// Load загружает конфигурацию приложения из окружения и .env.
func Load() (Config, error) {
	cfg := Config{}

	if err := loadEnv(); err != nil {
		return cfg, err
	}

	cfg.Env = getEnv("APP_ENV", "local")

	level, err := parseLevelEnv("LOG_LEVEL", slog.LevelInfo)
	if err != nil {
		return cfg, err
	}
	cfg.LogLevel = level

	serverPort, err := parseIntEnv("SERVER_PORT", 8080)
	if err != nil {
		return cfg, err
	}

	readTimeout, err := parseDurationEnv("SERVER_READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return cfg, err
	}

	// Генерация не ограничена таймаутом на клиенте, поэтому запись ответа ждет дольше.
	writeTimeout, err := parseDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return cfg, err
	}

	idleTimeout, err := parseDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return cfg, err
	}

	cfg.Server = ServerConfig{
		Host:         getEnv("SERVER_HOST", "0.0.0.0"),
		Port:         serverPort,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	dbPort, err := parseIntEnv("DB_PORT", 5432)
	if err != nil {
		return cfg, err
	}

	maxConns, err := parseIntEnv("DB_MAX_CONNS", 4)
	if err != nil {
		return cfg, err
	}

	cfg.Storage = StorageConfig{
		Driver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageSQLite)),
		Path:   getEnv("STORAGE_PATH", "uxwriter.db"),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "uxwriter"),
			Password: getEnv("DB_PASSWORD", "uxwriter"),
			Name:     getEnv("DB_NAME", "uxwriter"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: maxConns,
		},
	}

	defaultBalance, err := parseNonNegativeIntEnv("CREDITS_DEFAULT_BALANCE", 5)
	if err != nil {
		return cfg, err
	}

	checkoutDelay, err := parseNonNegativeDurationEnv("CHECKOUT_DELAY", time.Second)
	if err != nil {
		return cfg, err
	}

	cfg.Credits = CreditsConfig{
		DefaultBalance: int64(defaultBalance),
		PlansFile:      getEnv("CREDIT_PLANS_FILE", ""),
		CheckoutDelay:  checkoutDelay,
	}

	temperature, err := parseFloatEnv("AI_TEMPERATURE", 0.7)
	if err != nil {
		return cfg, err
	}

	maxTokens, err := parseIntEnv("AI_MAX_TOKENS", 500)
	if err != nil {
		return cfg, err
	}

	cfg.AI = AIConfig{
		Provider:    strings.ToLower(getEnv("AI_PROVIDER", ProviderOpenAI)),
		APIKey:      getEnv("AI_API_KEY", ""),
		BaseURL:     getEnv("AI_BASE_URL", "https://api.openai.com/v1"),
		Model:       getEnv("AI_MODEL", "gpt-4o-mini"),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	deviceTTL, err := parseDurationEnv("AUTH_DEVICE_TTL", 365*24*time.Hour)
	if err != nil {
		return cfg, err
	}

	cfg.Auth = AuthConfig{
		DeviceSecret: getEnv("AUTH_DEVICE_SECRET", ""),
		Issuer:       getEnv("AUTH_ISSUER", "uxwriter"),
		DeviceTTL:    deviceTTL,
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// DSN возвращает строку подключения к базе данных.
func (c DatabaseConfig) DSN() string {
	user := url.UserPassword(c.User, c.Password)
	dsn := url.URL{
		Scheme: "postgres",
		User:   user,
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}

	query := url.Values{}
	query.Set("sslmode", c.SSLMode)
	return dsn.String() + "?" + query.Encode()
}

// ValidateServe проверяет настройки, обязательные только для HTTP-сервера.
func (c Config) ValidateServe() error {
	if c.Auth.DeviceSecret == "" {
		return fmt.Errorf("AUTH_DEVICE_SECRET is required")
	}

	return nil
}

func (c Config) validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("SERVER_PORT must be greater than 0")
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StorageSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("STORAGE_PATH is required")
		}
	case StoragePostgres:
		if c.Storage.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
		if c.Storage.Database.User == "" {
			return fmt.Errorf("DB_USER is required")
		}
		if c.Storage.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be one of memory, sqlite, postgres")
	}

	switch c.AI.Provider {
	case ProviderOpenAI, ProviderCompat:
	default:
		return fmt.Errorf("AI_PROVIDER must be one of openai, compat")
	}

	if strings.TrimSpace(c.AI.BaseURL) == "" {
		return fmt.Errorf("AI_BASE_URL is required")
	}

	if strings.TrimSpace(c.AI.Model) == "" {
		return fmt.Errorf("AI_MODEL is required")
	}

	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("AI_TEMPERATURE must be between 0 and 2")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

func parseIntEnv(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

func parseNonNegativeIntEnv(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}

	if parsed < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}

	return parsed, nil
}

func parseFloatEnv(key string, fallback float64) (float64, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}

	return parsed, nil
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

func parseNonNegativeDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}

	if parsed < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}

	return parsed, nil
}

func parseLevelEnv(key string, fallback slog.Level) (slog.Level, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return fallback, fmt.Errorf("%s must be one of debug, info, warn, error: %w", key, err)
	}

	return level, nil
}

func loadEnv() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}
