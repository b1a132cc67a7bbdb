package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel string

	// Agent
	AppOrigin      string `validate:"required,url"`
	HostCapability string `validate:"oneof=browser web native"`
	BackendURL     string `validate:"required,url"`
	AuthToken      string
	LocalDBPath    string `validate:"required"`
	UserID         string `validate:"required"`
	UserRole       string `validate:"required"`
	HostelID       string `validate:"required"`
	TenantID       string

	// Shared
	JWTSecret         string
	NATSURL           string
	PushSubjectPrefix string

	// Server
	ServerAddr         string `validate:"required"`
	RateLimitPerMinute int    `validate:"gt=0"`
}

var agentFields = []string{"AppOrigin", "HostCapability", "BackendURL", "LocalDBPath", "UserID", "UserRole", "HostelID"}

var serverFields = []string{"AppOrigin", "ServerAddr", "RateLimitPerMinute"}

// Load reads .env when present and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Warn("Warning: .env file not found", "error", err)
	}

	return &Config{
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		AppOrigin:          getEnv("APP_ORIGIN", "http://localhost:3000"),
		HostCapability:     getEnv("HOST_CAPABILITY", "browser"),
		BackendURL:         getEnv("BACKEND_URL", "http://localhost:8080"),
		AuthToken:          getEnv("AUTH_TOKEN", ""),
		LocalDBPath:        getEnv("LOCAL_DB_PATH", "./hostelnotify.db"),
		UserID:             getEnv("USER_ID", ""),
		UserRole:           getEnv("USER_ROLE", "tenant"),
		HostelID:           getEnv("HOSTEL_ID", ""),
		TenantID:           getEnv("TENANT_ID", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		NATSURL:            getEnv("NATS_URL", ""),
		PushSubjectPrefix:  getEnv("PUSH_SUBJECT_PREFIX", "hostel.notifications"),
		ServerAddr:         getEnv("SERVER_ADDR", ":8080"),
		RateLimitPerMinute: getIntEnv("RATE_LIMIT_PER_MINUTE", 30),
	}
}

// ValidateAgent checks the settings the notification agent needs.
func (c *Config) ValidateAgent() error {
	if err := validator.New().StructPartial(c, agentFields...); err != nil {
		return fmt.Errorf("invalid agent config: %w", err)
	}
	if c.AuthToken == "" && c.JWTSecret == "" {
		return fmt.Errorf("invalid agent config: AUTH_TOKEN or JWT_SECRET is required")
	}
	return nil
}

// ValidateServer checks the settings the notification API needs.
func (c *Config) ValidateServer() error {
	if err := validator.New().StructPartial(c, serverFields...); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("invalid server config: JWT_SECRET is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntEnv(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
