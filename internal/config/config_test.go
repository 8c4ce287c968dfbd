package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", validSecret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "dev", cfg.Server.Env)
	assert.True(t, cfg.Server.IsDevelopment())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.TrustedOrigins)

	assert.Equal(t, "jwt", cfg.Auth.Provider)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTokenDuration)
	assert.Equal(t, 30*time.Minute, cfg.Auth.ResetTokenDuration)

	assert.False(t, cfg.Redis.Enabled())
	assert.Empty(t, cfg.Storage.Bucket)
}

func TestLoad_RejectsShortSecret(t *testing.T) {
	t.Setenv("AUTH_SECRET", "too-short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_SECRET")
}

func TestLoad_RejectsUnknownProvider(t *testing.T) {
	t.Setenv("AUTH_SECRET", validSecret)
	t.Setenv("AUTH_TOKEN_PROVIDER", "oauth")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_TOKEN_PROVIDER")
}

func TestLoad_DurationsAreSeconds(t *testing.T) {
	t.Setenv("AUTH_SECRET", validSecret)
	t.Setenv("SESSION_TOKEN_DURATION", "3600")
	t.Setenv("RESET_TOKEN_DURATION", "900")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.Auth.SessionTokenDuration)
	assert.Equal(t, 15*time.Minute, cfg.Auth.ResetTokenDuration)
}

func TestLoad_TrustedOrigins(t *testing.T) {
	t.Setenv("AUTH_SECRET", validSecret)
	t.Setenv("TRUSTED_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.Server.TrustedOrigins)
}

func TestConnectionString(t *testing.T) {
	c := DatabaseConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "postgres",
		Password: "postgres",
		DBName:   "inventory",
		SSLMode:  "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=postgres dbname=inventory sslmode=disable",
		c.ConnectionString(),
	)

	c.ChannelBinding = "require"
	assert.Contains(t, c.ConnectionString(), "channel_binding=require")
}

func TestRedisConfig(t *testing.T) {
	c := RedisConfig{Host: "localhost", Port: "6379"}
	assert.True(t, c.Enabled())
	assert.Equal(t, "localhost:6379", c.Address())

	assert.False(t, (&RedisConfig{}).Enabled())
}
