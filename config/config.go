package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"itinera/encoder"
	"itinera/route"
	"itinera/transport"
)

var ErrMissingURL = errors.New("missing endpoint URL")

const (
	DefaultTimeout = 30 * time.Second
	DefaultRetries = 1
)

// Config holds the endpoints and call policy. Sources apply in order:
// defaults, TOML file, environment, flags.
type Config struct {
	RouteURL      string   `toml:"route_url"`
	TranscribeURL string   `toml:"transcribe_url"`
	Timeout       Duration `toml:"timeout"`
	Retries       int      `toml:"retries"`
	// TranscribeRetries applies to the transcription endpoint only.
	TranscribeRetries int    `toml:"transcribe_retries"`
	Format            string `toml:"format"`
	Strategy          string `toml:"strategy"`
	KeepPartial       bool   `toml:"keep_partial"`
	Device            string `toml:"device"`
}

// Duration decodes TOML strings such as "15s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func Default() Config {
	return Config{
		Timeout:  Duration{DefaultTimeout},
		Retries:  DefaultRetries,
		Format:   "flac",
		Strategy: "errors",
	}
}

// LoadFile overlays the TOML file at path. An empty path is a no-op.
func (c *Config) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return fmt.Errorf("config %s: unknown key %q", path, undec[0].String())
	}
	return nil
}

// LoadEnv overlays ITINERA_* variables read through getenv.
func (c *Config) LoadEnv(getenv func(string) string) error {
	if v := getenv("ITINERA_ROUTE_URL"); v != "" {
		c.RouteURL = v
	}
	if v := getenv("ITINERA_TRANSCRIBE_URL"); v != "" {
		c.TranscribeURL = v
	}
	if v := getenv("ITINERA_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ITINERA_TIMEOUT: %w", err)
		}
		c.Timeout = Duration{d}
	}
	if v := getenv("ITINERA_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ITINERA_RETRIES: %w", err)
		}
		c.Retries = n
	}
	if v := getenv("ITINERA_TRANSCRIBE_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ITINERA_TRANSCRIBE_RETRIES: %w", err)
		}
		c.TranscribeRetries = n
	}
	if v := getenv("ITINERA_FORMAT"); v != "" {
		c.Format = v
	}
	if v := getenv("ITINERA_STRATEGY"); v != "" {
		c.Strategy = v
	}
	return nil
}

// Load applies the file then the process environment.
func Load(path string) (Config, error) {
	c := Default()
	if err := c.LoadFile(path); err != nil {
		return c, err
	}
	if err := c.LoadEnv(os.Getenv); err != nil {
		return c, err
	}
	return c, nil
}

// Validate reports configuration errors that must stop startup.
// needTranscribe is false for runs that never touch audio.
func (c Config) Validate(needTranscribe bool) error {
	if strings.TrimSpace(c.RouteURL) == "" {
		return fmt.Errorf("%w: set ITINERA_ROUTE_URL or route_url", ErrMissingURL)
	}
	if needTranscribe && strings.TrimSpace(c.TranscribeURL) == "" {
		return fmt.Errorf("%w: set ITINERA_TRANSCRIBE_URL or transcribe_url", ErrMissingURL)
	}
	if c.Timeout.Duration < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must not be negative, got %d", c.Retries)
	}
	if c.TranscribeRetries < 0 {
		return fmt.Errorf("transcribe_retries must not be negative, got %d", c.TranscribeRetries)
	}
	if _, err := encoder.New(c.Format); err != nil {
		return err
	}
	if _, err := route.ParseStrategy(c.Strategy); err != nil {
		return err
	}
	return nil
}

// Policy is the call policy for the route service.
func (c Config) Policy() transport.Policy {
	return transport.Policy{Timeout: c.Timeout.Duration, Retries: c.Retries}
}

// TranscribePolicy shares the timeout but not the retry count, since an
// upload is not retried unless asked for.
func (c Config) TranscribePolicy() transport.Policy {
	return transport.Policy{Timeout: c.Timeout.Duration, Retries: c.TranscribeRetries}
}

// NormalizerStrategy assumes Validate passed.
func (c Config) NormalizerStrategy() route.Strategy {
	s, _ := route.ParseStrategy(c.Strategy)
	return s
}
