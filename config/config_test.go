// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "netcheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
targets:
  - google.com
`))
	require.NoError(t, err)

	assert.True(t, cfg.DNS.Enabled)
	assert.Equal(t, 5*time.Second, cfg.DNS.Timeout.Std())
	assert.True(t, cfg.Ping.Enabled)
	assert.Equal(t, 3, cfg.Ping.Count)
	assert.False(t, cfg.Bandwidth.Enabled)
	assert.False(t, cfg.MTU.Enabled)
	assert.Equal(t, 576, cfg.MTU.Min)
	assert.Equal(t, 1500, cfg.MTU.Max)
	assert.Equal(t, 30, cfg.Traceroute.MaxHops)
	assert.Equal(t, 1, cfg.Parallelism)
	assert.Equal(t, 30, cfg.RetentionDays)
	assert.Equal(t, "results", cfg.ResultsDir)
}

func TestLoadOverridesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
targets:
  - google.com
  - https://example.com/health
parallelism: 4
ping:
  enabled: false
mtu:
  enabled: true
  min: 1200
  max: 1500
  step: 4
  probe_timeout: 1500ms
ports:
  list: "22,443"
`))
	require.NoError(t, err)

	assert.Len(t, cfg.Targets, 2)
	assert.Equal(t, 4, cfg.Parallelism)
	assert.False(t, cfg.Ping.Enabled)
	assert.True(t, cfg.MTU.Enabled)
	assert.Equal(t, 1200, cfg.MTU.Min)
	assert.Equal(t, 4, cfg.MTU.Step)
	assert.Equal(t, 1500*time.Millisecond, cfg.MTU.ProbeTimeout.Std())
	assert.Equal(t, "22,443", cfg.Ports.List)
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	_, err := Load(writeConfig(t, `
targets:
  - google.com
dns:
  timeout: five seconds
`))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "no targets",
			mutate:  func(c *Config) { c.Targets = nil },
			wantErr: "no targets",
		},
		{
			name:    "parallelism zero",
			mutate:  func(c *Config) { c.Parallelism = 0 },
			wantErr: "parallelism",
		},
		{
			name: "mtu range inverted",
			mutate: func(c *Config) {
				c.MTU.Enabled = true
				c.MTU.Min = 1500
				c.MTU.Max = 1200
			},
			wantErr: "mtu",
		},
		{
			name:   "mtu range ignored when disabled",
			mutate: func(c *Config) { c.MTU.Min = 1500; c.MTU.Max = 1200 },
		},
		{
			name:    "bandwidth enabled without url",
			mutate:  func(c *Config) { c.Bandwidth.Enabled = true },
			wantErr: "bandwidth",
		},
		{
			name: "bad webhook url",
			mutate: func(c *Config) {
				c.Alerts.Enabled = true
				c.Alerts.WebhookURL = "https://hooks.example.com/$(id)"
			},
			wantErr: "webhook",
		},
		{
			name: "webhook url ignored when alerts disabled",
			mutate: func(c *Config) {
				c.Alerts.WebhookURL = "not a url"
			},
		},
		{
			name: "email without smtp addr",
			mutate: func(c *Config) {
				c.Alerts.Enabled = true
				c.Alerts.Email.To = []string{"ops@example.com"}
			},
			wantErr: "smtp_addr",
		},
		{
			name:    "enabled test with zero timeout",
			mutate:  func(c *Config) { c.HTTP.Timeout = 0 },
			wantErr: "http",
		},
		{
			name:   "zero timeout tolerated when disabled",
			mutate: func(c *Config) { c.HTTP.Enabled = false; c.HTTP.Timeout = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Targets = []string{"google.com"}
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
