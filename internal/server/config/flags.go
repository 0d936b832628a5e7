package config

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/accountkeeper/internal/flagx"
	"github.com/dmitrijs2005/accountkeeper/internal/timex"
)

// parseFlags overlays selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string               REST bind address (e.g., "0.0.0.0:8000")
//	-g string               gRPC health bind address, "" disables
//	-d string               store DSN
//	-l string               log backend: slog or zap
//	-mode string            development or production
//	-access-secret string   access token HMAC key
//	-refresh-secret string  refresh token HMAC key
//	-t duration             access token lifetime ("15m", "1d")
//	-r duration             refresh token lifetime
//	-conceal bool           answer unknown-user logins like wrong passwords
//
// os.Args is filtered with flagx.FilterArgs first, so flags owned by other
// loaders (-c, -env) do not break parsing.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-g", "-d", "-l", "-mode", "-access-secret", "-refresh-secret", "-t", "-r", "-conceal",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run the REST server")
	fs.StringVar(&config.GRPCHealthAddr, "g", config.GRPCHealthAddr, "address and port to run the gRPC health server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.LogBackend, "l", config.LogBackend, "log backend (slog|zap)")
	fs.StringVar(&config.Environment, "mode", config.Environment, "environment (development|production)")
	fs.StringVar(&config.AccessTokenSecret, "access-secret", config.AccessTokenSecret, "access token secret")
	fs.StringVar(&config.RefreshTokenSecret, "refresh-secret", config.RefreshTokenSecret, "refresh token secret")
	fs.Func("t", "access token lifetime", durationSetter(&config.AccessTokenTTL))
	fs.Func("r", "refresh token lifetime", durationSetter(&config.RefreshTokenTTL))
	fs.Func("conceal", "conceal unknown-user logins", func(s string) error {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		config.ConcealLoginFailures = b
		return nil
	})

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}

func durationSetter(dst *time.Duration) func(string) error {
	return func(s string) error {
		d, err := timex.ParseDuration(s)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}
