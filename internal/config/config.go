// Package config handles loading, validation, and management of application
// configuration. It supports YAML configuration files with environment
// variable overrides. All default values are sourced from the defaults
// package to ensure consistency.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/hsm-rebalance/pkg/defaults"
	"github.com/yourusername/hsm-rebalance/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	HSMGroups      HSMGroupsConfig       `yaml:"hsm_groups"`
	Endpoints      []EndpointConfig      `yaml:"endpoints"`
	EndpointRanges []EndpointRangeConfig `yaml:"endpoint_ranges"`
	Defaults       DefaultsConfig        `yaml:"defaults"`
	Concurrency    int                   `yaml:"concurrency"`
	Logging        LoggingConfig         `yaml:"logging"`
	Retry          RetryConfig           `yaml:"retry"`
	HTTP           HTTPConfig            `yaml:"http"`
}

// HSMGroupsConfig holds the GroupReader collaborator's connection settings.
type HSMGroupsConfig struct {
	URL                string `yaml:"url"`
	Token              string `yaml:"token"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
}

// IsEnabled returns true if the HSM group service is configured.
func (h HSMGroupsConfig) IsEnabled() bool {
	return h.URL != "" && h.Token != ""
}

// Timeout returns the configured timeout as a Duration.
func (h HSMGroupsConfig) Timeout() time.Duration {
	return durationSeconds(h.TimeoutSeconds, defaults.GetHSMGroupsTimeout())
}

// EndpointConfig holds the Redfish BMC connection details for one cluster
// node. NodeID must match the identifier the HSM group service reports for
// cluster membership so the InventoryReader adapter can resolve one to the
// other.
type EndpointConfig struct {
	NodeID             string `yaml:"node_id"`
	Host               string `yaml:"host"`
	Username           string `yaml:"username,omitempty"`
	Password           string `yaml:"password,omitempty"`
	InsecureSkipVerify *bool  `yaml:"insecure_skip_verify,omitempty"`
	TimeoutSeconds     *int   `yaml:"timeout_seconds,omitempty"`
}

// GetUsername returns the username, falling back to the provided default.
func (e EndpointConfig) GetUsername(defaultUser string) string {
	return nonEmpty(e.Username, defaultUser)
}

// GetPassword returns the password, falling back to the provided default.
func (e EndpointConfig) GetPassword(defaultPass string) string {
	return nonEmpty(e.Password, defaultPass)
}

// GetDisplayName returns a human-readable name for this endpoint.
func (e EndpointConfig) GetDisplayName() string {
	if e.NodeID != "" {
		return e.NodeID
	}
	return e.Host
}

// GetInsecureSkipVerify returns the TLS verification setting for this endpoint.
func (e EndpointConfig) GetInsecureSkipVerify(defaultValue bool) bool {
	return boolPtr(e.InsecureSkipVerify, defaultValue)
}

// GetTimeout returns the timeout for this endpoint.
func (e EndpointConfig) GetTimeout(defaultTimeout time.Duration) time.Duration {
	return durationSecondsPtr(e.TimeoutSeconds, defaultTimeout)
}

// EndpointRangeConfig bulk-declares one endpoint per address in Hosts,
// which accepts a single IPv4 address, a dash range
// ("10.10.10.1-10.10.10.25"), or CIDR notation. NodeIDFormat is a
// printf-style template with one %d verb, filled with NodeIDStart plus the
// address's offset in the expanded range; when empty, the address itself is
// the node id.
type EndpointRangeConfig struct {
	Hosts              string `yaml:"hosts"`
	NodeIDFormat       string `yaml:"node_id_format,omitempty"`
	NodeIDStart        int    `yaml:"node_id_start,omitempty"`
	Username           string `yaml:"username,omitempty"`
	Password           string `yaml:"password,omitempty"`
	InsecureSkipVerify *bool  `yaml:"insecure_skip_verify,omitempty"`
}

// DefaultsConfig holds default values for BMC connections.
type DefaultsConfig struct {
	Username           string `yaml:"username"`
	Password           string `yaml:"password"`
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
	InsecureSkipVerify *bool  `yaml:"insecure_skip_verify,omitempty"`
}

// Timeout returns the configured timeout as a Duration.
func (d DefaultsConfig) Timeout() time.Duration {
	return durationSeconds(d.TimeoutSeconds, defaults.GetTimeout())
}

// GetInsecureSkipVerify returns the TLS verification setting.
func (d DefaultsConfig) GetInsecureSkipVerify() bool {
	return boolPtr(d.InsecureSkipVerify, defaults.DefaultInsecureSkipVerify)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// RetryConfig holds retry configuration, consumed by internal/adapters/retry.
type RetryConfig struct {
	MaxAttempts int    `yaml:"max_attempts"`
	BaseDelay   string `yaml:"base_delay"`
	MaxDelay    string `yaml:"max_delay"`
}

// GetMaxAttempts returns the max retry attempts.
func (r RetryConfig) GetMaxAttempts() int {
	return positiveInt(r.MaxAttempts, defaults.DefaultRetryMaxAttempts)
}

// GetBaseDelay returns the base retry delay.
func (r RetryConfig) GetBaseDelay() time.Duration {
	if r.BaseDelay == "" {
		return defaults.DefaultRetryBaseDelay
	}
	if d, err := time.ParseDuration(r.BaseDelay); err == nil {
		return d
	}
	return defaults.DefaultRetryBaseDelay
}

// GetMaxDelay returns the max retry delay.
func (r RetryConfig) GetMaxDelay() time.Duration {
	if r.MaxDelay == "" {
		return defaults.DefaultRetryMaxDelay
	}
	if d, err := time.ParseDuration(r.MaxDelay); err == nil {
		return d
	}
	return defaults.DefaultRetryMaxDelay
}

// HTTPConfig holds HTTP client configuration shared by the HSM group and
// Redfish clients.
type HTTPConfig struct {
	MaxIdleConns       int `yaml:"max_idle_conns"`
	IdleConnTimeoutSec int `yaml:"idle_conn_timeout_seconds"`
}

// GetMaxIdleConns returns max idle connections.
func (h HTTPConfig) GetMaxIdleConns() int {
	return positiveInt(h.MaxIdleConns, defaults.DefaultHTTPMaxIdleConns)
}

// GetIdleConnTimeout returns idle connection timeout.
func (h HTTPConfig) GetIdleConnTimeout() time.Duration {
	return durationSeconds(h.IdleConnTimeoutSec, defaults.GetHTTPIdleConnTimeout())
}

// Load reads and parses a configuration file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse parses configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	if err := cfg.expandEndpointRanges(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(defaults.EnvHSMGroupsURL); v != "" {
		c.HSMGroups.URL = v
	}
	if v := os.Getenv(defaults.EnvHSMGroupsToken); v != "" {
		c.HSMGroups.Token = v
	}
	if v := os.Getenv(defaults.EnvHSMGroupsInsecureSkipVerify); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.HSMGroups.InsecureSkipVerify = b
		}
	}

	if v := os.Getenv(defaults.EnvDefaultUsername); v != "" {
		c.Defaults.Username = v
	}
	if v := os.Getenv(defaults.EnvDefaultPassword); v != "" {
		c.Defaults.Password = v
	}

	if v := os.Getenv(defaults.EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(defaults.EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
}

// applyDefaults sets default values for unset fields.
func (c *Config) applyDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = defaults.GetConcurrency()
	}
	if c.Concurrency > defaults.DefaultMaxConcurrency {
		c.Concurrency = defaults.DefaultMaxConcurrency
	}

	if c.Defaults.TimeoutSeconds <= 0 {
		c.Defaults.TimeoutSeconds = defaults.DefaultTimeoutSeconds
	}

	if c.Logging.Level == "" {
		c.Logging.Level = defaults.DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaults.DefaultLogFormat
	}

	if c.HSMGroups.TimeoutSeconds <= 0 {
		c.HSMGroups.TimeoutSeconds = defaults.DefaultHSMGroupsTimeoutSeconds
	}
}

// expandEndpointRanges folds every endpoint_ranges entry into Endpoints so
// the rest of the program only ever sees individual endpoints. Ranges are
// consumed in declaration order; per-range credentials carry onto each
// expanded endpoint.
func (c *Config) expandEndpointRanges() error {
	for i, r := range c.EndpointRanges {
		hosts, err := ExpandHostSpec(r.Hosts)
		if err != nil {
			return fmt.Errorf("endpoint_ranges[%d]: %w", i, err)
		}
		for j, host := range hosts {
			nodeID := host
			if r.NodeIDFormat != "" {
				nodeID = fmt.Sprintf(r.NodeIDFormat, r.NodeIDStart+j)
			}
			c.Endpoints = append(c.Endpoints, EndpointConfig{
				NodeID:             nodeID,
				Host:               host,
				Username:           r.Username,
				Password:           r.Password,
				InsecureSkipVerify: r.InsecureSkipVerify,
			})
		}
	}
	c.EndpointRanges = nil
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	multiErr := &errors.MultiError{}

	if len(c.Endpoints) == 0 {
		multiErr.Add(fmt.Errorf("at least one endpoint is required"))
	}

	for i, ep := range c.Endpoints {
		if ep.Host == "" {
			multiErr.Add(fmt.Errorf("endpoint[%d].host is required", i))
		}
		if ep.NodeID == "" {
			multiErr.Add(fmt.Errorf("endpoint[%d].node_id is required", i))
		}

		username := ep.GetUsername(c.Defaults.Username)
		password := ep.GetPassword(c.Defaults.Password)

		if username == "" {
			multiErr.Add(fmt.Errorf("no username configured for %s (set %s or per-endpoint username)",
				ep.GetDisplayName(), defaults.EnvDefaultUsername))
		}
		if password == "" {
			multiErr.Add(fmt.Errorf("no password configured for %s (set %s or per-endpoint password)",
				ep.GetDisplayName(), defaults.EnvDefaultPassword))
		}
	}

	if c.HSMGroups.URL != "" || c.HSMGroups.Token != "" {
		if c.HSMGroups.URL == "" {
			multiErr.Add(fmt.Errorf("hsm_groups.url is required when token is set (or set %s)", defaults.EnvHSMGroupsURL))
		}
		if c.HSMGroups.Token == "" {
			multiErr.Add(fmt.Errorf("hsm_groups.token is required when url is set (or set %s)", defaults.EnvHSMGroupsToken))
		}
		if c.HSMGroups.URL != "" {
			if _, err := url.Parse(c.HSMGroups.URL); err != nil {
				multiErr.Add(fmt.Errorf("hsm_groups.url: invalid url: %w", err))
			}
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		multiErr.Add(fmt.Errorf("logging.level: invalid level %q (must be debug, info, warn, or error)", c.Logging.Level))
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		multiErr.Add(fmt.Errorf("logging.format: invalid format %q (must be json or console)", c.Logging.Format))
	}

	return multiErr.ErrorOrNil()
}

// EndpointByNodeID returns the endpoint configured for nodeID, if any.
func (c *Config) EndpointByNodeID(nodeID string) (EndpointConfig, bool) {
	for _, ep := range c.Endpoints {
		if ep.NodeID == nodeID {
			return ep, true
		}
	}
	return EndpointConfig{}, false
}

// EndpointCount returns the number of configured endpoints.
func (c *Config) EndpointCount() int {
	return len(c.Endpoints)
}

// Merge overlays other's non-zero fields onto c. Used to layer a
// single-endpoint CLI override on top of a base config file.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.HSMGroups.URL != "" {
		c.HSMGroups.URL = other.HSMGroups.URL
	}
	if other.HSMGroups.Token != "" {
		c.HSMGroups.Token = other.HSMGroups.Token
	}
	if other.Concurrency > 0 {
		c.Concurrency = other.Concurrency
	}
	if len(other.Endpoints) > 0 {
		c.Endpoints = append(c.Endpoints, other.Endpoints...)
	}
}

// NewSingleEndpointConfig creates a config for rebalancing against a single
// directly-addressed endpoint. Useful for ad hoc CLI invocations that bypass
// a config file entirely.
func NewSingleEndpointConfig(nodeID, host, username, password string) *Config {
	return &Config{
		Endpoints: []EndpointConfig{
			{NodeID: nodeID, Host: host, Username: username, Password: password},
		},
		Defaults: DefaultsConfig{
			TimeoutSeconds: defaults.DefaultTimeoutSeconds,
		},
		Concurrency: 1,
		Logging: LoggingConfig{
			Level:  defaults.DefaultLogLevel,
			Format: defaults.DefaultLogFormat,
		},
	}
}

// EnvVarHelp returns a list of all supported environment variables with descriptions.
func EnvVarHelp() map[string]string {
	return map[string]string{
		defaults.EnvLogLevel:                    "Log level: debug, info, warn, error (default: info)",
		defaults.EnvLogFormat:                   "Log format: json, console (default: console)",
		defaults.EnvDefaultUsername:             "Default Redfish/BMC username",
		defaults.EnvDefaultPassword:             "Default Redfish/BMC password",
		defaults.EnvDefaultTimeout:              "Default connection timeout in seconds (default: 60)",
		defaults.EnvConcurrency:                 "Max parallel inventory fetches (default: 5, max: 50)",
		defaults.EnvInsecureSkipVerify:          "Skip TLS verification for Redfish/BMC (default: true)",
		defaults.EnvHSMGroupsURL:                "HSM group service base URL",
		defaults.EnvHSMGroupsToken:              "HSM group service API token",
		defaults.EnvHSMGroupsTimeout:            "HSM group service timeout in seconds (default: 30)",
		defaults.EnvHSMGroupsInsecureSkipVerify: "Skip TLS verification for the HSM group service (default: false)",
		defaults.EnvRetryMaxAttempts:            "Max retry attempts on failure (default: 3)",
		defaults.EnvRetryBaseDelay:              "Base delay between retries (default: 1s)",
		defaults.EnvRetryMaxDelay:               "Max delay between retries (default: 30s)",
	}
}
