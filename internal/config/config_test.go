package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Port != "8080" {
		t.Fatalf("port = %s", c.Port)
	}
	if c.DBPath != "coachd.db" {
		t.Fatalf("db path = %s", c.DBPath)
	}
	if c.ProviderTimeout != 3*time.Second {
		t.Fatalf("provider timeout = %s", c.ProviderTimeout)
	}
	if c.Retention != 720*time.Hour {
		t.Fatalf("retention = %s", c.Retention)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("COACHD_PORT", "9090")
	t.Setenv("COACHD_PROVIDER_URL", "http://content.internal:7000")
	t.Setenv("COACHD_LOG_LEVEL", "debug")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Port != "9090" || c.ProviderURL != "http://content.internal:7000" || c.LogLevel != "debug" {
		t.Fatalf("environment not applied: %+v", c)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Config)
		want string
	}{
		{"empty db path", func(c *Config) { c.DBPath = "" }, "COACHD_DB_PATH"},
		{"zero timeout", func(c *Config) { c.ProviderTimeout = 0 }, "COACHD_PROVIDER_TIMEOUT"},
		{"short retention", func(c *Config) { c.Retention = time.Hour }, "COACHD_RETENTION"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "COACHD_LOG_LEVEL"},
	}
	for _, tc := range cases {
		c, err := Load()
		if err != nil {
			t.Fatalf("%s: load: %v", tc.name, err)
		}
		tc.mut(&c)
		err = c.Validate()
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected error mentioning %s, got %v", tc.name, tc.want, err)
		}
	}
}
