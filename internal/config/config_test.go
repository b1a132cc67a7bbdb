package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_ADDR", "")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")

	cfg := Load()
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, 30, cfg.RateLimitPerMinute)
	assert.Equal(t, "hostel.notifications", cfg.PushSubjectPrefix)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_ORIGIN", "https://hostel.example.com")
	t.Setenv("HOST_CAPABILITY", "native")
	t.Setenv("USER_ID", "u-1")
	t.Setenv("HOSTEL_ID", "hostelA")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "120")

	cfg := Load()
	assert.Equal(t, "https://hostel.example.com", cfg.AppOrigin)
	assert.Equal(t, "native", cfg.HostCapability)
	assert.Equal(t, "u-1", cfg.UserID)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
}

func TestValidateAgent(t *testing.T) {
	cfg := &Config{
		AppOrigin:      "https://hostel.example.com",
		HostCapability: "browser",
		BackendURL:     "http://localhost:8080",
		LocalDBPath:    ":memory:",
		UserID:         "u-1",
		UserRole:       "tenant",
		HostelID:       "hostelA",
		JWTSecret:      "s",
	}
	require.NoError(t, cfg.ValidateAgent())

	cfg.JWTSecret = ""
	assert.Error(t, cfg.ValidateAgent())

	cfg.AuthToken = "bearer"
	cfg.HostCapability = "desktop"
	assert.Error(t, cfg.ValidateAgent())

	cfg.HostCapability = "native"
	cfg.UserID = ""
	assert.Error(t, cfg.ValidateAgent())
}

func TestValidateServer(t *testing.T) {
	cfg := &Config{AppOrigin: "https://hostel.example.com", ServerAddr: ":8080", RateLimitPerMinute: 30}
	assert.Error(t, cfg.ValidateServer())

	cfg.JWTSecret = "s"
	assert.NoError(t, cfg.ValidateServer())

	cfg.RateLimitPerMinute = 0
	assert.Error(t, cfg.ValidateServer())
}

func TestLoadFirebaseConfig(t *testing.T) {
	for _, name := range requiredFirebaseVars {
		t.Setenv(name, "x")
	}
	t.Setenv("FIREBASE_PROJECT_ID", "hostel-app")
	t.Setenv("FIREBASE_PRIVATE_KEY", `-----BEGIN KEY-----\nabc\n-----END KEY-----`)

	fc, err := LoadFirebaseConfig()
	require.NoError(t, err)
	assert.Equal(t, "hostel-app", fc.ProjectID)
	assert.Equal(t, "-----BEGIN KEY-----\nabc\n-----END KEY-----", fc.Credentials.PrivateKey)

	t.Setenv("FIREBASE_CLIENT_EMAIL", "")
	_, err = LoadFirebaseConfig()
	assert.ErrorIs(t, err, ErrMissingFirebaseConfig)
	assert.ErrorContains(t, err, "FIREBASE_CLIENT_EMAIL")
}
