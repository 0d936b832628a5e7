package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "0.0.0.0:8000", c.HTTPAddr)
	assert.Equal(t, ":50051", c.GRPCHealthAddr)
	assert.Equal(t, "", c.DatabaseDSN)
	assert.Equal(t, "accountkeeper", c.MongoDatabase)
	assert.Equal(t, 24*time.Hour, c.AccessTokenTTL)
	assert.Equal(t, 240*time.Hour, c.RefreshTokenTTL)
	assert.Equal(t, "http://localhost:3000", c.CORSOrigin)
	assert.Equal(t, EnvDevelopment, c.Environment)
	assert.Equal(t, 10, c.BcryptCost)
	assert.EqualValues(t, 16384, c.BodyLimitBytes)
	assert.EqualValues(t, 5*1024*1024, c.MaxUploadBytes)
	assert.Equal(t, 1024, c.ImageMaxDimension)
	assert.False(t, c.ConcealLoginFailures)
	assert.False(t, c.IsProduction())
}

func TestValidate(t *testing.T) {
	var c Config
	c.LoadDefaults()

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGO_URI")
	assert.Contains(t, err.Error(), "ACCESS_TOKEN_SECRET")
	assert.Contains(t, err.Error(), "REFRESH_TOKEN_SECRET")

	c.DatabaseDSN = "memory://"
	c.AccessTokenSecret = "a"
	err = c.Validate()
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "MONGO_URI")
	assert.Contains(t, err.Error(), "REFRESH_TOKEN_SECRET")

	c.RefreshTokenSecret = "r"
	require.NoError(t, c.Validate())

	c.AccessTokenTTL = 0
	require.Error(t, c.Validate())
}

func TestIsProduction(t *testing.T) {
	c := Config{Environment: "Production"}
	assert.True(t, c.IsProduction())
	c.Environment = "staging"
	assert.False(t, c.IsProduction())
}

func TestLoadConfig_Layering(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, "", "", map[string]any{
		"database_dsn":     "mongodb://json:27017",
		"access_token_ttl": "30m",
		"cors_origin":      "https://json.example",
	})

	t.Setenv("MONGO_URI", "mongodb://env:27017")
	t.Setenv("ACCESS_TOKEN_SECRET", "env-access")
	t.Setenv("REFRESH_TOKEN_SECRET", "env-refresh")

	os.Args = []string{"server", "-c", path, "-refresh-secret", "flag-refresh"}

	c := LoadConfig()
	require.NotNil(t, c)

	assert.Equal(t, "mongodb://env:27017", c.DatabaseDSN)
	assert.Equal(t, 30*time.Minute, c.AccessTokenTTL)
	assert.Equal(t, "https://json.example", c.CORSOrigin)
	assert.Equal(t, "env-access", c.AccessTokenSecret)
	assert.Equal(t, "flag-refresh", c.RefreshTokenSecret)
	require.NoError(t, c.Validate())
}
