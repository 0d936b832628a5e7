package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/accountkeeper/internal/flagx"
	"github.com/dmitrijs2005/accountkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the optional configuration file.
// Durations use timex.Duration, so "15m", "10d" and integer nanoseconds
// are all accepted. Absent keys leave the current value untouched.
type JsonConfig struct {
	HTTPAddr             *string         `json:"http_addr"`
	GRPCHealthAddr       *string         `json:"grpc_health_addr"`
	DatabaseDSN          *string         `json:"database_dsn"`
	MongoDatabase        *string         `json:"mongo_database"`
	AccessTokenSecret    *string         `json:"access_token_secret"`
	RefreshTokenSecret   *string         `json:"refresh_token_secret"`
	AccessTokenTTL       *timex.Duration `json:"access_token_ttl"`
	RefreshTokenTTL      *timex.Duration `json:"refresh_token_ttl"`
	CORSOrigin           *string         `json:"cors_origin"`
	Environment          *string         `json:"environment"`
	LogBackend           *string         `json:"log_backend"`
	BcryptCost           *int            `json:"bcrypt_cost"`
	BodyLimitBytes       *int64          `json:"body_limit_bytes"`
	MaxUploadBytes       *int64          `json:"max_upload_bytes"`
	ImageMaxDimension    *int            `json:"image_max_dimension"`
	ConcealLoginFailures *bool           `json:"conceal_login_failures"`
	S3AccessKey          *string         `json:"s3_access_key"`
	S3SecretKey          *string         `json:"s3_secret_key"`
	S3Bucket             *string         `json:"s3_bucket"`
	S3Region             *string         `json:"s3_region"`
	S3Endpoint           *string         `json:"s3_endpoint"`
	S3PublicBaseURL      *string         `json:"s3_public_base_url"`
}

// parseJson loads the file named by -c / -config, if any, and overlays its
// values onto config. An unreadable or malformed file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlag(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setIf(&config.HTTPAddr, c.HTTPAddr)
	setIf(&config.GRPCHealthAddr, c.GRPCHealthAddr)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.MongoDatabase, c.MongoDatabase)
	setIf(&config.AccessTokenSecret, c.AccessTokenSecret)
	setIf(&config.RefreshTokenSecret, c.RefreshTokenSecret)
	if c.AccessTokenTTL != nil {
		config.AccessTokenTTL = c.AccessTokenTTL.Duration
	}
	if c.RefreshTokenTTL != nil {
		config.RefreshTokenTTL = c.RefreshTokenTTL.Duration
	}
	setIf(&config.CORSOrigin, c.CORSOrigin)
	setIf(&config.Environment, c.Environment)
	setIf(&config.LogBackend, c.LogBackend)
	setIf(&config.BcryptCost, c.BcryptCost)
	setIf(&config.BodyLimitBytes, c.BodyLimitBytes)
	setIf(&config.MaxUploadBytes, c.MaxUploadBytes)
	setIf(&config.ImageMaxDimension, c.ImageMaxDimension)
	setIf(&config.ConcealLoginFailures, c.ConcealLoginFailures)
	setIf(&config.S3AccessKey, c.S3AccessKey)
	setIf(&config.S3SecretKey, c.S3SecretKey)
	setIf(&config.S3Bucket, c.S3Bucket)
	setIf(&config.S3Region, c.S3Region)
	setIf(&config.S3Endpoint, c.S3Endpoint)
	setIf(&config.S3PublicBaseURL, c.S3PublicBaseURL)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
