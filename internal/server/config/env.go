package config

import (
	"errors"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/accountkeeper/internal/flagx"
	"github.com/dmitrijs2005/accountkeeper/internal/timex"
)

const (
	envHost                 = "HOST"
	envPort                 = "PORT"
	envGRPCHealthAddr       = "GRPC_HEALTH_ADDR"
	envMongoURI             = "MONGO_URI"
	envDatabaseDSN          = "DATABASE_DSN"
	envMongoDatabase        = "MONGO_DB"
	envAccessTokenSecret    = "ACCESS_TOKEN_SECRET"
	envRefreshTokenSecret   = "REFRESH_TOKEN_SECRET"
	envAccessTokenExpiry    = "ACCESS_TOKEN_EXPIRY"
	envRefreshTokenExpiry   = "REFRESH_TOKEN_EXPIRY"
	envCORSOrigin           = "CORS_ORIGIN"
	envAppEnv               = "APP_ENV"
	envLogBackend           = "LOG_BACKEND"
	envBcryptCost           = "BCRYPT_COST"
	envBodyLimitBytes       = "BODY_LIMIT_BYTES"
	envMaxUploadBytes       = "MAX_UPLOAD_BYTES"
	envImageMaxDimension    = "IMAGE_MAX_DIMENSION"
	envConcealLoginFailures = "CONCEAL_LOGIN_FAILURES"
	envS3AccessKey          = "S3_ACCESS_KEY"
	envS3SecretKey          = "S3_SECRET_KEY"
	envS3Bucket             = "S3_BUCKET"
	envS3Region             = "S3_REGION"
	envS3Endpoint           = "S3_ENDPOINT"
	envS3PublicBaseURL      = "S3_PUBLIC_BASE_URL"
)

// dotenvLoad is swapped in tests.
var dotenvLoad = godotenv.Load

// parseEnv loads an optional dotenv file and overlays environment variables
// onto config. The file named by -env must exist; the default ".env" may be
// absent. Variables already present in the process environment win over
// the file. Malformed numeric or duration values panic.
func parseEnv(config *Config) {
	if path := flagx.EnvFileFlag(os.Args[1:]); path != "" {
		if err := dotenvLoad(path); err != nil {
			panic(err)
		}
	} else if err := dotenvLoad(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	applyHostPort(config, os.Getenv(envHost), os.Getenv(envPort))

	lookupString(envGRPCHealthAddr, &config.GRPCHealthAddr)
	lookupString(envMongoURI, &config.DatabaseDSN)
	lookupString(envDatabaseDSN, &config.DatabaseDSN)
	lookupString(envMongoDatabase, &config.MongoDatabase)
	lookupString(envAccessTokenSecret, &config.AccessTokenSecret)
	lookupString(envRefreshTokenSecret, &config.RefreshTokenSecret)
	lookupString(envCORSOrigin, &config.CORSOrigin)
	lookupString(envAppEnv, &config.Environment)
	lookupString(envLogBackend, &config.LogBackend)
	lookupString(envS3AccessKey, &config.S3AccessKey)
	lookupString(envS3SecretKey, &config.S3SecretKey)
	lookupString(envS3Bucket, &config.S3Bucket)
	lookupString(envS3Region, &config.S3Region)
	lookupString(envS3Endpoint, &config.S3Endpoint)
	lookupString(envS3PublicBaseURL, &config.S3PublicBaseURL)

	if v, ok := os.LookupEnv(envAccessTokenExpiry); ok {
		config.AccessTokenTTL = mustDuration(envAccessTokenExpiry, v)
	}
	if v, ok := os.LookupEnv(envRefreshTokenExpiry); ok {
		config.RefreshTokenTTL = mustDuration(envRefreshTokenExpiry, v)
	}
	if v, ok := os.LookupEnv(envBcryptCost); ok {
		config.BcryptCost = int(mustInt(envBcryptCost, v))
	}
	if v, ok := os.LookupEnv(envBodyLimitBytes); ok {
		config.BodyLimitBytes = mustInt(envBodyLimitBytes, v)
	}
	if v, ok := os.LookupEnv(envMaxUploadBytes); ok {
		config.MaxUploadBytes = mustInt(envMaxUploadBytes, v)
	}
	if v, ok := os.LookupEnv(envImageMaxDimension); ok {
		config.ImageMaxDimension = int(mustInt(envImageMaxDimension, v))
	}
	if v, ok := os.LookupEnv(envConcealLoginFailures); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			panic(envConcealLoginFailures + ": " + err.Error())
		}
		config.ConcealLoginFailures = b
	}
}

// applyHostPort replaces either half of HTTPAddr.
func applyHostPort(config *Config, host, port string) {
	if host == "" && port == "" {
		return
	}
	curHost, curPort, err := net.SplitHostPort(config.HTTPAddr)
	if err != nil {
		curHost, curPort = config.HTTPAddr, ""
	}
	if host != "" {
		curHost = host
	}
	if port != "" {
		curPort = port
	}
	config.HTTPAddr = net.JoinHostPort(curHost, curPort)
}

func lookupString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func mustDuration(key, v string) time.Duration {
	d, err := timex.ParseDuration(v)
	if err != nil {
		panic(key + ": " + err.Error())
	}
	return d
}

func mustInt(key, v string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		panic(key + ": " + err.Error())
	}
	return n
}
