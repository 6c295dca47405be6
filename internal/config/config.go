// Package config assembles runtime configuration from an optional YAML
// file, STUDYDECK_* environment variables and command-line flags, in that
// order of precedence (flags win).
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "STUDYDECK_"

// Config holds all runtime settings.
type Config struct {
	// DB is the path to the SQLite database file.
	DB string `koanf:"db" validate:"required"`
	// Listen is the address the web shell binds to.
	Listen string `koanf:"listen" validate:"required,hostname_port"`
	// Repos is the directory git note sources are cloned into.
	Repos string `koanf:"repos" validate:"required"`
	// Questions is the default number of flashcards generated per upload.
	Questions int `koanf:"questions" validate:"min=1,max=30"`
}

// Flags returns the flag set the application parses. Flag defaults double
// as configuration defaults.
func Flags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("studydeck", pflag.ContinueOnError)
	flags.String("config", "", "Path to an optional YAML config file")
	flags.String("db", "studydeck.db", "Path to the SQLite database file")
	flags.String("listen", "127.0.0.1:8080", "Address for the web interface")
	flags.String("repos", "repos", "Directory git note sources are cloned into")
	flags.Int("questions", 8, "Default number of flashcards generated per upload")
	flags.String("add-source", "", "Register a new document source (path or git URL) and exit")
	flags.Bool("sync", false, "Sync all document sources and exit")
	return flags
}

// Load merges the config file (if any), environment and parsed flags into
// a validated Config.
func Load(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path, _ := flags.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}

	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to load flag config: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// LoadOrExit is Load for main: it prints the problem and exits non-zero.
func LoadOrExit(flags *pflag.FlagSet) *Config {
	cfg, err := Load(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return cfg
}
