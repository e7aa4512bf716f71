// Package config provides functionality for managing configuration options
// for the server and the client using command-line flags, an optional JSON
// file, a .env file and environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrMissingSecret is returned when no token signing secret is configured.
var ErrMissingSecret = errors.New("jwt secret is required (-j or JWT_SECRET)")

// Options holds the configuration values for the server.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `env:"SERVER_ADDRESS"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `env:"DATABASE_DSN"`

	// Config is the path to the Config file.
	Config string `env:"CONFIG"`

	// EnvFile is the path to a .env file loaded into the environment.
	EnvFile string

	// JWTSecret signs access tokens.
	JWTSecret string `env:"JWT_SECRET"`

	// TokenTTL is the lifetime of an access token.
	TokenTTL time.Duration `env:"TOKEN_TTL"`

	// InvitationTTL is how long an invitation token stays valid.
	InvitationTTL time.Duration `env:"INVITATION_TTL"`

	// CleanupInterval is how often expired invitations are removed.
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL"`

	// LogLevel is the zap level name.
	LogLevel string `env:"LOG_LEVEL"`
}

// fileOptions is the JSON config file layout. Durations use
// time.ParseDuration syntax.
type fileOptions struct {
	ServerAddress   *string `json:"server_address"`
	DatabaseDSN     *string `json:"database_dsn"`
	JWTSecret       *string `json:"jwt_secret"`
	TokenTTL        *string `json:"token_ttl"`
	InvitationTTL   *string `json:"invitation_ttl"`
	CleanupInterval *string `json:"cleanup_interval"`
	LogLevel        *string `json:"log_level"`
}

// Parse parses the process arguments and environment. It exits on error.
func Parse() *Options {
	options, err := ParseArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return options
}

// ParseArgs builds Options from args. Values from the JSON config file
// override flags, and environment variables (including those loaded from the
// .env file) override both.
func ParseArgs(args []string) (*Options, error) {
	options := &Options{}

	fset := flag.NewFlagSet("server", flag.ContinueOnError)
	fset.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	fset.StringVar(&options.DatabaseDSN, "d", "", "db address")
	fset.StringVar(&options.Config, "config", "config.json", "path to config file")
	fset.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	fset.StringVar(&options.EnvFile, "env-file", ".env", "path to .env file")
	fset.StringVar(&options.JWTSecret, "j", "", "access token signing secret")
	fset.DurationVar(&options.TokenTTL, "token-ttl", 24*time.Hour, "access token lifetime")
	fset.DurationVar(&options.InvitationTTL, "invitation-ttl", 7*24*time.Hour, "invitation token lifetime")
	fset.DurationVar(&options.CleanupInterval, "cleanup-interval", time.Hour, "expired invitation cleanup interval")
	fset.StringVar(&options.LogLevel, "log-level", "info", "log level")
	if err := fset.Parse(args); err != nil {
		return nil, err
	}

	if options.EnvFile != "" {
		if err := godotenv.Load(options.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error while loading env file: %w", err)
		}
	}

	// CONFIG may point at a different file before the file layer is read.
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}
	if options.Config != "" {
		if err := applyFile(options, options.Config); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(options); err != nil {
		return nil, fmt.Errorf("error while parsing environment: %w", err)
	}

	if options.JWTSecret == "" {
		return nil, ErrMissingSecret
	}
	return options, nil
}

func applyFile(options *Options, path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}
	var fo fileOptions
	if err := json.Unmarshal(data, &fo); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}

	setString(&options.Port, fo.ServerAddress)
	setString(&options.DatabaseDSN, fo.DatabaseDSN)
	setString(&options.JWTSecret, fo.JWTSecret)
	setString(&options.LogLevel, fo.LogLevel)
	for _, d := range []struct {
		dst *time.Duration
		src *string
	}{
		{&options.TokenTTL, fo.TokenTTL},
		{&options.InvitationTTL, fo.InvitationTTL},
		{&options.CleanupInterval, fo.CleanupInterval},
	} {
		if d.src == nil {
			continue
		}
		v, err := time.ParseDuration(*d.src)
		if err != nil {
			return fmt.Errorf("error while parsing config file: %w", err)
		}
		*d.dst = v
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
