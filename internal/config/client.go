package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Session store drivers understood by the client.
const (
	StoreDriverFile   = "file"
	StoreDriverSQLite = "sqlite"
)

// ClientOptions holds the configuration values for the command-line client.
type ClientOptions struct {
	// URL is the server base URL.
	URL string `env:"GOPHAUTH_URL"`
	// Store is the session store location: a JSON file or a SQLite database.
	Store string `env:"GOPHAUTH_STORE"`
	// StoreDriver selects the session store backend.
	StoreDriver string `env:"GOPHAUTH_STORE_DRIVER"`
	// LogLevel is the zap level name.
	LogLevel string `env:"GOPHAUTH_LOG_LEVEL"`
	// Version asks for build information only.
	Version bool
	// Command and Args are the positional arguments.
	Command string
	Args    []string
}

// ParseClient parses client flags from args and overlays the environment.
func ParseClient(args []string) (*ClientOptions, error) {
	options := &ClientOptions{}

	fset := flag.NewFlagSet("client", flag.ContinueOnError)
	fset.StringVar(&options.URL, "url", "http://localhost:8080", "server base URL")
	fset.StringVar(&options.Store, "store", "storage.json", "session store path")
	fset.StringVar(&options.StoreDriver, "store-driver", StoreDriverFile, "session store driver: file | sqlite")
	fset.StringVar(&options.LogLevel, "log-level", "error", "log level")
	fset.BoolVar(&options.Version, "version", false, "show build version and date")
	if err := fset.Parse(args); err != nil {
		return nil, err
	}

	if err := env.Parse(options); err != nil {
		return nil, fmt.Errorf("error while parsing environment: %w", err)
	}

	switch options.StoreDriver {
	case StoreDriverFile, StoreDriverSQLite:
	default:
		return nil, fmt.Errorf("unknown store driver %q", options.StoreDriver)
	}

	if rest := fset.Args(); len(rest) > 0 {
		options.Command = rest[0]
		options.Args = rest[1:]
	}
	return options, nil
}
