package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nkazants/accounts-service/internal/logger"
)

func validConfig() *Config {
	c := NewConfig()
	c.DatabaseDSN = "postgresql://localhost/accounts"
	c.AccessTokenSecret = "access-secret"
	c.RefreshTokenSecret = "refresh-secret"
	return c
}

func Test_NewConfig_Defaults(t *testing.T) {
	t.Parallel()

	c := NewConfig()

	require.Equal(t, "localhost:8000", c.ListenAddr)
	require.Equal(t, logger.LevelInfo, c.LogLevel)
	require.Equal(t, logger.EnvProduction, c.Environment)
	require.Equal(t, 15*time.Minute, c.AccessTokenTTL)
	require.Equal(t, 30*24*time.Hour, c.RefreshTokenTTL)
	require.Empty(t, c.AccessTokenSecret, "secrets must never have defaults")
	require.Empty(t, c.RefreshTokenSecret, "secrets must never have defaults")
}

func Test_Config_Validate(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "missing dsn", mutate: func(c *Config) { c.DatabaseDSN = "" }},
		{name: "missing access secret", mutate: func(c *Config) { c.AccessTokenSecret = "" }},
		{name: "missing refresh secret", mutate: func(c *Config) { c.RefreshTokenSecret = "" }},
		{name: "equal secrets", mutate: func(c *Config) { c.RefreshTokenSecret = c.AccessTokenSecret }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			require.Error(t, c.Validate())
		})
	}
}

func Test_Config_LoadEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		"RUN_ADDRESS":          "localhost:9999",
		"DATABASE_URI":         "postgresql://db/accounts",
		"ACCESS_TOKEN_SECRET":  "env-access",
		"REFRESH_TOKEN_SECRET": "env-refresh",
		"ACCESS_TOKEN_TTL":     "5m",
		"REFRESH_TOKEN_TTL":    "24h",
		"S3_BUCKET":            "media",
		"LOG_LEVEL":            "debug",
		"ENVIRONMENT":          "dev",
	}

	c := NewConfig()
	c.LoadEnv(func(key string) string { return env[key] })

	require.Equal(t, "localhost:9999", c.ListenAddr)
	require.Equal(t, "postgresql://db/accounts", c.DatabaseDSN)
	require.Equal(t, "env-access", c.AccessTokenSecret)
	require.Equal(t, "env-refresh", c.RefreshTokenSecret)
	require.Equal(t, 5*time.Minute, c.AccessTokenTTL)
	require.Equal(t, 24*time.Hour, c.RefreshTokenTTL)
	require.Equal(t, "media", c.S3Bucket)
	require.Equal(t, "debug", c.LogLevel)
	require.Equal(t, "dev", c.Environment)
}

func Test_Config_LoadEnv_EmptyKeepsDefaults(t *testing.T) {
	t.Parallel()

	c := NewConfig()
	c.LoadEnv(func(string) string { return "" })

	require.Equal(t, NewConfig(), c)
}

func Test_Config_LoadEnv_BadDurationIgnored(t *testing.T) {
	t.Parallel()

	c := NewConfig()
	c.LoadEnv(func(key string) string {
		if key == "ACCESS_TOKEN_TTL" {
			return "not a duration"
		}
		return ""
	})

	require.Equal(t, 15*time.Minute, c.AccessTokenTTL)
}

func Test_Config_ParseFlags(t *testing.T) {
	t.Parallel()

	t.Run("flags override", func(t *testing.T) {
		c := NewConfig()

		err := c.ParseFlags([]string{
			"-a", "localhost:7777",
			"-d", "postgresql://flag/accounts",
			"--access-secret", "flag-access",
			"--refresh-secret", "flag-refresh",
			"--access-ttl", "1m",
			"--s3-bucket", "media",
			"-e", "dev",
		})
		require.NoError(t, err)

		require.Equal(t, "localhost:7777", c.ListenAddr)
		require.Equal(t, "postgresql://flag/accounts", c.DatabaseDSN)
		require.Equal(t, "flag-access", c.AccessTokenSecret)
		require.Equal(t, "flag-refresh", c.RefreshTokenSecret)
		require.Equal(t, time.Minute, c.AccessTokenTTL)
		require.Equal(t, "media", c.S3Bucket)
		require.Equal(t, "dev", c.Environment)
	})

	t.Run("no flags keeps previous values", func(t *testing.T) {
		c := validConfig()

		require.NoError(t, c.ParseFlags(nil))
		require.Equal(t, validConfig(), c)
	})

	t.Run("unknown flag", func(t *testing.T) {
		c := NewConfig()

		require.Error(t, c.ParseFlags([]string{"--no-such-flag"}))
	})
}
