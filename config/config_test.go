package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"itinera/route"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaults(t *testing.T) {
	c := Default()
	if c.Timeout.Duration != 30*time.Second || c.Retries != 1 || c.Format != "flac" || c.Strategy != "errors" {
		t.Errorf("defaults = %+v", c)
	}
	if p := c.TranscribePolicy(); p.Retries != 0 || p.Timeout != 30*time.Second {
		t.Errorf("transcribe policy = %+v, want no retries", p)
	}
}

func TestTranscribeRetries(t *testing.T) {
	c := Default()
	if err := c.LoadEnv(envMap(map[string]string{"ITINERA_TRANSCRIBE_RETRIES": "2"})); err != nil {
		t.Fatal(err)
	}
	if c.TranscribePolicy().Retries != 2 || c.Policy().Retries != DefaultRetries {
		t.Errorf("route %+v, transcribe %+v", c.Policy(), c.TranscribePolicy())
	}
}

func TestFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "itinera.toml")
	err := os.WriteFile(path, []byte(`
route_url = "http://file/route"
transcribe_url = "http://file/audio"
timeout = "5s"
retries = 3
strategy = "structural"
`), 0644)
	if err != nil {
		t.Fatal(err)
	}

	c := Default()
	if err := c.LoadFile(path); err != nil {
		t.Fatal(err)
	}
	err = c.LoadEnv(envMap(map[string]string{
		"ITINERA_ROUTE_URL": "http://env/route",
		"ITINERA_RETRIES":   "0",
	}))
	if err != nil {
		t.Fatal(err)
	}

	if c.RouteURL != "http://env/route" {
		t.Errorf("route url = %q, env should win", c.RouteURL)
	}
	if c.TranscribeURL != "http://file/audio" {
		t.Errorf("transcribe url = %q", c.TranscribeURL)
	}
	if c.Timeout.Duration != 5*time.Second || c.Retries != 0 {
		t.Errorf("policy = %+v", c.Policy())
	}
	if c.NormalizerStrategy() != route.Structural {
		t.Errorf("strategy = %v", c.NormalizerStrategy())
	}
}

func TestLoadFileUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	os.WriteFile(path, []byte(`route_uri = "typo"`), 0644)
	c := Default()
	if err := c.LoadFile(path); err == nil {
		t.Error("expected unknown key error")
	}
}

func TestLoadEnvBadValues(t *testing.T) {
	for _, env := range []map[string]string{
		{"ITINERA_TIMEOUT": "soon"},
		{"ITINERA_RETRIES": "many"},
		{"ITINERA_TRANSCRIBE_RETRIES": "-"},
	} {
		c := Default()
		if err := c.LoadEnv(envMap(env)); err == nil {
			t.Errorf("%v: expected error", env)
		}
	}
}

func TestValidate(t *testing.T) {
	ok := Default()
	ok.RouteURL = "http://r"
	ok.TranscribeURL = "http://t"
	if err := ok.Validate(true); err != nil {
		t.Fatalf("valid config: %v", err)
	}

	noRoute := ok
	noRoute.RouteURL = ""
	if err := noRoute.Validate(false); !errors.Is(err, ErrMissingURL) {
		t.Errorf("missing route url: %v", err)
	}

	noAudio := ok
	noAudio.TranscribeURL = ""
	if err := noAudio.Validate(false); err != nil {
		t.Errorf("text-only run should not need transcription: %v", err)
	}
	if err := noAudio.Validate(true); !errors.Is(err, ErrMissingURL) {
		t.Errorf("missing transcribe url: %v", err)
	}

	for name, mutate := range map[string]func(*Config){
		"format":             func(c *Config) { c.Format = "ogg" },
		"strategy":           func(c *Config) { c.Strategy = "vibes" },
		"retries":            func(c *Config) { c.Retries = -1 },
		"transcribe retries": func(c *Config) { c.TranscribeRetries = -1 },
		"timeout":            func(c *Config) { c.Timeout = Duration{-time.Second} },
	} {
		c := ok
		mutate(&c)
		if err := c.Validate(true); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
