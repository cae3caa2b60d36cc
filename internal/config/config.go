// Package config handles the parsing and validation of application configuration
// from command-line arguments and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/woozymasta/mtabot/internal/ase"
	"github.com/woozymasta/mtabot/internal/logger"
	"github.com/woozymasta/mtabot/internal/vars"
)

// Config represents the complete application flags configuration.
type Config struct {
	// betteralign:ignore

	MTA       MTA           `group:"MTA Server Options" namespace:"mta" env-namespace:"MTABOT_MTA"`
	Discord   Discord       `group:"Discord Options" namespace:"discord" env-namespace:"MTABOT_DISCORD"`
	Watch     Watch         `group:"Watch Options" namespace:"watch" env-namespace:"MTABOT_WATCH"`
	NTP       NTP           `group:"NTP Options" namespace:"ntp" env-namespace:"MTABOT_NTP"`
	Storage   Storage       `group:"Storage Options" namespace:"db" env-namespace:"MTABOT_DB"`
	GeoIP     GeoIP         `group:"GeoIP Options" namespace:"geoip" env-namespace:"MTABOT_GEOIP"`
	Server    Server        `group:"HTTP API Options" env-namespace:"MTABOT"`
	RateLimit RateLimit     `group:"Rate Limit Options" namespace:"rate-limit" env-namespace:"MTABOT_RATE_LIMIT"`
	Logger    logger.Config `group:"Logger Options" namespace:"log" env-namespace:"MTABOT_LOG"`

	Version    bool `short:"v" long:"version" description:"Print version and build info"`
	FakePlayer int  `long:"dev-fake-players" hidden:"true"`
}

// MTA holds the queried game server and ASE transport settings.
type MTA struct {
	// betteralign:ignore

	Host       string        `short:"H" long:"host" env:"HOST" description:"MTA server host (IPv4 or name)" default:"127.0.0.1"`
	Port       int           `short:"p" long:"port" env:"PORT" description:"MTA game port, the query port is port+123" default:"22003"`
	Timeout    time.Duration `long:"timeout" env:"TIMEOUT" description:"Query timeout" default:"3s"`
	Variant    string        `long:"variant" env:"VARIANT" description:"Query variant" choice:"tagged" choice:"legacy" default:"tagged"`
	BufferSize int           `long:"buffer-size" env:"BUFFER_SIZE" description:"Reply buffer size" default:"8192"`
	Label      string        `long:"label" env:"LABEL" description:"Display name of the server in chat replies" default:"MTA:SA"`
}

// Discord holds bot configuration.
type Discord struct {
	// betteralign:ignore

	Token     string        `long:"token" env:"TOKEN" description:"Bot token, empty disables the bot"`
	GuildID   string        `long:"guild" env:"GUILD" description:"Register commands in this guild only"`
	Locale    string        `long:"locale" env:"LOCALE" description:"Fallback language of replies" default:"es"`
	Thumbnail string        `long:"thumbnail" env:"THUMBNAIL" description:"Embed thumbnail URL"`
	Cooldown  time.Duration `long:"cooldown" env:"COOLDOWN" description:"Minimum delay between commands of one user" default:"10s"`
}

// Watch holds the background poller configuration.
type Watch struct {
	Interval time.Duration `long:"interval" env:"INTERVAL" description:"Poll interval for history, 0 disables" default:"5m"`
}

// NTP holds the clock offset check configuration.
type NTP struct {
	// betteralign:ignore

	Host      string        `long:"host" env:"HOST" description:"NTP server" default:"time.windows.com"`
	Interval  time.Duration `long:"interval" env:"INTERVAL" description:"Check interval, 0 disables" default:"15m"`
	Threshold time.Duration `long:"threshold" env:"THRESHOLD" description:"Offset that triggers a warning" default:"2500ms"`
	Timeout   time.Duration `long:"timeout" env:"TIMEOUT" description:"NTP request timeout" default:"3s"`
}

// Storage holds database configuration.
type Storage struct {
	// betteralign:ignore

	Path          string        `short:"d" long:"path" env:"PATH" description:"Path to SQLite database" default:"mtabot.db"`
	Retention     time.Duration `long:"retention" env:"RETENTION" description:"History retention" default:"720h"`
	Prune         bool          `long:"prune" description:"Delete history older than retention and exit"`
	GenerateCount int           `long:"gen-fake-data" hidden:"true"`
}

// GeoIP holds MaxMind GeoIP configuration used to tag the server country.
type GeoIP struct {
	// betteralign:ignore

	Path     string        `short:"g" long:"path" env:"PATH" description:"Path to MMDB file, empty disables country lookup"`
	URL      string        `long:"url" env:"URL" description:"URL to download MMDB" default:"https://git.io/GeoLite2-Country.mmdb"`
	Interval time.Duration `long:"interval" env:"INTERVAL" description:"Update interval check" default:"24h"`
}

// Server holds web server configuration.
type Server struct {
	// betteralign:ignore

	Address    string `short:"l" long:"address" env:"LISTEN_ADDRESS" description:"HTTP API listen address (e.g. :8080), empty disables"`
	AuthToken  string `short:"t" long:"auth-token" env:"AUTH_TOKEN" description:"Token for history and stats endpoints"`
	TrustProxy bool   `long:"trust-proxy" env:"TRUST_PROXY" description:"Trust X-Forwarded-For headers"`
}

// RateLimit holds API rate limiting configuration.
type RateLimit struct {
	// betteralign:ignore

	HardLimitCount int           `long:"hard-count" env:"HARD_COUNT" description:"Hard IP limit: requests count" default:"8"`
	HardLimitWin   time.Duration `long:"hard-window" env:"HARD_WINDOW" description:"Hard IP limit: window duration" default:"1m"`
}

// Parse reads the configuration from flags and environment variables.
// It terminates the application if the configuration is invalid or if the help flag is invoked.
func Parse() *Config {
	cfg, err := ParseArgs(os.Args[1:])
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print()
		os.Exit(0)
	}

	return cfg
}

// ParseArgs parses args and validates the result without exiting.
func ParseArgs(args []string) (*Config, error) {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	parser.NamespaceDelimiter = "-"

	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}
	if cfg.Version {
		return &cfg, nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values go-flags cannot check on its own.
func (c *Config) Validate() error {
	maintenance := c.Storage.Prune || c.Storage.GenerateCount > 0
	if !maintenance && c.Discord.Token == "" && c.Server.Address == "" {
		return errors.New("nothing to serve: set `--discord-token' or `--address'")
	}

	if c.MTA.Port <= 0 || c.MTA.Port+ase.QueryPortOffset > 65535 {
		return fmt.Errorf("invalid `--mta-port' %d: query port must fit in 1..65535", c.MTA.Port)
	}
	if _, err := ase.ParseVariant(c.MTA.Variant); err != nil {
		return fmt.Errorf("invalid `--mta-variant': %w", err)
	}
	if c.MTA.Timeout <= 0 {
		return errors.New("`--mta-timeout' must be positive")
	}

	return nil
}

// QueryOptions converts the MTA group into ase query options.
func (m MTA) QueryOptions() []ase.Option {
	v, err := ase.ParseVariant(m.Variant)
	if err != nil {
		v = ase.DefaultVariant
	}

	return []ase.Option{
		ase.WithVariant(v),
		ase.WithTimeout(m.Timeout),
		ase.WithBufferSize(m.BufferSize),
	}
}
