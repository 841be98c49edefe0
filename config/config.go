// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.

// Package config loads and validates the run configuration. The resulting
// struct is treated as immutable and threaded through every component
// constructor.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/netcheck/netcheck/alert"
	"github.com/netcheck/netcheck/mtu"
)

// Duration wraps time.Duration for YAML ("5s", "1500ms").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

type (
	// TestConfig is the common enabled/timeout pair every test kind has.
	TestConfig struct {
		Enabled bool     `yaml:"enabled"`
		Timeout Duration `yaml:"timeout"`
	}

	// PingConfig adds the echo count.
	PingConfig struct {
		TestConfig `yaml:",inline"`
		Count      int `yaml:"count"`
	}

	// BandwidthConfig adds the measurement endpoint.
	BandwidthConfig struct {
		TestConfig `yaml:",inline"`
		URL        string `yaml:"url"`
		TestUpload bool   `yaml:"test_upload"`
	}

	// PortsConfig adds the comma-separated port list. An empty list
	// selects the default well-known set.
	PortsConfig struct {
		TestConfig `yaml:",inline"`
		List       string `yaml:"list"`
	}

	// MTUConfig adds the discovery range.
	MTUConfig struct {
		TestConfig   `yaml:",inline"`
		Min          int      `yaml:"min"`
		Max          int      `yaml:"max"`
		Step         int      `yaml:"step"`
		ProbeTimeout Duration `yaml:"probe_timeout"`
	}

	// TracerouteConfig adds the hop limit.
	TracerouteConfig struct {
		TestConfig `yaml:",inline"`
		MaxHops    int `yaml:"max_hops"`
	}

	// EmailConfig configures the SMTP alert path.
	EmailConfig struct {
		To       []string `yaml:"to"`
		From     string   `yaml:"from"`
		SMTPAddr string   `yaml:"smtp_addr"`
		Username string   `yaml:"username"`
		Password string   `yaml:"password"`
	}

	// AlertsConfig configures failure notifications.
	AlertsConfig struct {
		Enabled    bool        `yaml:"enabled"`
		WebhookURL string      `yaml:"webhook_url"`
		Email      EmailConfig `yaml:"email"`
	}

	// Config is the full, validated run configuration.
	Config struct {
		Targets         []string `yaml:"targets"`
		ResultsDir      string   `yaml:"results_dir"`
		ResultPrefix    string   `yaml:"result_prefix"`
		HealthFile      string   `yaml:"health_file"`
		LogDir          string   `yaml:"log_dir"`
		Parallelism     int      `yaml:"parallelism"`
		RetentionDays   int      `yaml:"retention_days"`
		UserAgent       string   `yaml:"user_agent"`
		PrivilegedICMP  bool     `yaml:"privileged_icmp"`
		CollectPublicIP bool     `yaml:"collect_public_ip"`

		DNS        TestConfig       `yaml:"dns"`
		Ping       PingConfig       `yaml:"ping"`
		Bandwidth  BandwidthConfig  `yaml:"bandwidth"`
		Ports      PortsConfig      `yaml:"ports"`
		MTU        MTUConfig        `yaml:"mtu"`
		HTTP       TestConfig       `yaml:"http"`
		Traceroute TracerouteConfig `yaml:"traceroute"`
		Alerts     AlertsConfig     `yaml:"alerts"`
	}
)

// Default returns the configuration used when a field is absent from the
// file. Bandwidth and MTU default off: both put real load on the path.
func Default() Config {
	return Config{
		ResultsDir:    "results",
		ResultPrefix:  "netcheck",
		HealthFile:    "health.json",
		Parallelism:   1,
		RetentionDays: 30,
		UserAgent:     "netcheck",

		DNS:  TestConfig{Enabled: true, Timeout: Duration(5 * time.Second)},
		Ping: PingConfig{TestConfig: TestConfig{Enabled: true, Timeout: Duration(10 * time.Second)}, Count: 3},
		Bandwidth: BandwidthConfig{
			TestConfig: TestConfig{Enabled: false, Timeout: Duration(60 * time.Second)},
		},
		Ports: PortsConfig{TestConfig: TestConfig{Enabled: true, Timeout: Duration(3 * time.Second)}},
		MTU: MTUConfig{
			TestConfig:   TestConfig{Enabled: false, Timeout: Duration(60 * time.Second)},
			Min:          576,
			Max:          1500,
			Step:         10,
			ProbeTimeout: Duration(2 * time.Second),
		},
		HTTP: TestConfig{Enabled: true, Timeout: Duration(10 * time.Second)},
		Traceroute: TracerouteConfig{
			TestConfig: TestConfig{Enabled: true, Timeout: Duration(60 * time.Second)},
			MaxHops:    30,
		},
	}
}

// Load reads, decodes and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the configuration invariants that are fatal for a run.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return fmt.Errorf("config: no targets configured")
	}
	if c.Parallelism < 1 {
		return fmt.Errorf("config: parallelism must be at least 1")
	}
	if c.MTU.Enabled {
		params := mtu.Params{
			MinMTU:       c.MTU.Min,
			MaxMTU:       c.MTU.Max,
			Step:         c.MTU.Step,
			ProbeTimeout: c.MTU.ProbeTimeout.Std(),
		}
		if err := params.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	if c.Bandwidth.Enabled && c.Bandwidth.URL == "" {
		return fmt.Errorf("config: bandwidth test enabled without a url")
	}
	if c.Alerts.Enabled && c.Alerts.WebhookURL != "" {
		if err := alert.ValidateWebhookURL(c.Alerts.WebhookURL); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	if c.Alerts.Enabled && len(c.Alerts.Email.To) > 0 && c.Alerts.Email.SMTPAddr == "" {
		return fmt.Errorf("config: email alerts configured without smtp_addr")
	}
	for _, tc := range []struct {
		name    string
		timeout Duration
		enabled bool
	}{
		{"dns", c.DNS.Timeout, c.DNS.Enabled},
		{"ping", c.Ping.Timeout, c.Ping.Enabled},
		{"bandwidth", c.Bandwidth.Timeout, c.Bandwidth.Enabled},
		{"ports", c.Ports.Timeout, c.Ports.Enabled},
		{"mtu", c.MTU.Timeout, c.MTU.Enabled},
		{"http", c.HTTP.Timeout, c.HTTP.Enabled},
		{"traceroute", c.Traceroute.Timeout, c.Traceroute.Enabled},
	} {
		if tc.enabled && tc.timeout <= 0 {
			return fmt.Errorf("config: %s test enabled with non-positive timeout", tc.name)
		}
	}
	return nil
}
