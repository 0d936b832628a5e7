// Package config handles configuration for the server component,
// including defaults, JSON overlay, environment variables and command-line
// flags.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Environment names recognised in APP_ENV.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds runtime settings for the accountkeeper server.
//
// Fields:
//   - HTTPAddr: bind address for the REST API.
//   - GRPCHealthAddr: bind address for the gRPC health service; empty disables it.
//   - DatabaseDSN: store DSN, the scheme selects mongodb, postgres or memory.
//   - AccessTokenSecret / RefreshTokenSecret: HMAC keys (HS256), must differ.
//   - AccessTokenTTL / RefreshTokenTTL: token lifetimes.
//   - S3*: object storage used as the media host.
type Config struct {
	HTTPAddr             string
	GRPCHealthAddr       string
	DatabaseDSN          string
	MongoDatabase        string
	AccessTokenSecret    string
	RefreshTokenSecret   string
	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	CORSOrigin           string
	Environment          string
	LogBackend           string
	BcryptCost           int
	BodyLimitBytes       int64
	MaxUploadBytes       int64
	ImageMaxDimension    int
	ConcealLoginFailures bool
	S3AccessKey          string
	S3SecretKey          string
	S3Bucket             string
	S3Region             string
	S3Endpoint           string
	S3PublicBaseURL      string
}

// LoadDefaults populates Config with development defaults. The DSN and
// both token secrets are intentionally left empty: they must be supplied.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = "0.0.0.0:8000"
	c.GRPCHealthAddr = ":50051"
	c.MongoDatabase = "accountkeeper"
	c.AccessTokenTTL = 24 * time.Hour
	c.RefreshTokenTTL = 10 * 24 * time.Hour
	c.CORSOrigin = "http://localhost:3000"
	c.Environment = EnvDevelopment
	c.LogBackend = "slog"
	c.BcryptCost = 10
	c.BodyLimitBytes = 16 << 10
	c.MaxUploadBytes = 5 << 20
	c.ImageMaxDimension = 1024
	c.S3Bucket = "accountkeeper"
	c.S3Region = "us-east-1"
}

// IsProduction reports whether the server runs with production settings
// (secure cookies, release gin mode, production logger).
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, EnvProduction)
}

// Validate reports every missing required setting in one error.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.DatabaseDSN) == "" {
		missing = append(missing, envMongoURI)
	}
	if c.AccessTokenSecret == "" {
		missing = append(missing, envAccessTokenSecret)
	}
	if c.RefreshTokenSecret == "" {
		missing = append(missing, envRefreshTokenSecret)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment (and .env file) and finally
// command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
