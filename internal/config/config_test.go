package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/hsm-rebalance/pkg/logging"
)

func init() {
	_ = logging.Init(logging.Config{Level: "error", Format: "console"})
}

func TestParse_ValidConfig(t *testing.T) {
	yaml := `
hsm_groups:
  url: "https://smd.example.com"
  token: "abc123"

defaults:
  username: "root"
  password: "password"
  timeout_seconds: 30

concurrency: 10

endpoints:
  - node_id: "x3000c0s1b0n0"
    host: "10.1.1.10"
  - node_id: "x3000c0s2b0n0"
    host: "10.1.1.11"
    username: "admin"
    password: "different"
`
	cfg, err := Parse([]byte(yaml))
	require.NoError(t, err)

	assert.Equal(t, "https://smd.example.com", cfg.HSMGroups.URL)
	assert.Equal(t, "abc123", cfg.HSMGroups.Token)
	assert.Equal(t, 10, cfg.Concurrency)
	assert.Len(t, cfg.Endpoints, 2)

	assert.Equal(t, "10.1.1.10", cfg.Endpoints[0].Host)
	assert.Equal(t, "root", cfg.Endpoints[0].GetUsername(cfg.Defaults.Username))
	assert.Equal(t, "password", cfg.Endpoints[0].GetPassword(cfg.Defaults.Password))

	assert.Equal(t, "admin", cfg.Endpoints[1].GetUsername(cfg.Defaults.Username))
	assert.Equal(t, "different", cfg.Endpoints[1].GetPassword(cfg.Defaults.Password))
}

func TestParse_MinimalConfig(t *testing.T) {
	yaml := `
defaults:
  username: "root"
  password: "password"

endpoints:
  - node_id: "n1"
    host: "10.1.1.10"
`
	cfg, err := Parse([]byte(yaml))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Concurrency)
	assert.Equal(t, 60, cfg.Defaults.TimeoutSeconds)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestParse_EndpointRanges(t *testing.T) {
	yaml := `
defaults:
  username: "root"
  password: "password"

endpoint_ranges:
  - hosts: "10.1.1.10-10.1.1.12"
    node_id_format: "x3000c0s%db0n0"
    node_id_start: 1
`
	cfg, err := Parse([]byte(yaml))
	require.NoError(t, err)

	require.Len(t, cfg.Endpoints, 3)
	assert.Equal(t, "x3000c0s1b0n0", cfg.Endpoints[0].NodeID)
	assert.Equal(t, "10.1.1.10", cfg.Endpoints[0].Host)
	assert.Equal(t, "x3000c0s3b0n0", cfg.Endpoints[2].NodeID)
	assert.Equal(t, "10.1.1.12", cfg.Endpoints[2].Host)

	ep, ok := cfg.EndpointByNodeID("x3000c0s2b0n0")
	require.True(t, ok)
	assert.Equal(t, "10.1.1.11", ep.Host)
}

func TestParse_EndpointRangeInvalid(t *testing.T) {
	yaml := `
defaults:
  username: "root"
  password: "password"

endpoint_ranges:
  - hosts: "10.1.1.12-10.1.1.10"
`
	_, err := Parse([]byte(yaml))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint_ranges[0]")
}

func TestParse_NoEndpoints(t *testing.T) {
	yaml := `
defaults:
  username: "root"
  password: "password"

endpoints: []
`
	_, err := Parse([]byte(yaml))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one endpoint is required")
}

func TestParse_MissingCredentials(t *testing.T) {
	yaml := `
endpoints:
  - node_id: "n1"
    host: "10.1.1.10"
`
	_, err := Parse([]byte(yaml))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no username configured")
	assert.Contains(t, err.Error(), "no password configured")
}

func TestParse_MissingHost(t *testing.T) {
	yaml := `
defaults:
  username: "root"
  password: "password"

endpoints:
  - node_id: "n1"
`
	_, err := Parse([]byte(yaml))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host is required")
}

func TestParse_MissingNodeID(t *testing.T) {
	yaml := `
defaults:
  username: "root"
  password: "password"

endpoints:
  - host: "10.1.1.10"
`
	_, err := Parse([]byte(yaml))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node_id is required")
}

func TestParse_InvalidHSMGroupsConfig(t *testing.T) {
	yaml := `
hsm_groups:
  url: "https://smd.example.com"
  # token missing

defaults:
  username: "root"
  password: "password"

endpoints:
  - node_id: "n1"
    host: "10.1.1.10"
`
	_, err := Parse([]byte(yaml))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token is required")
}

func TestParse_InvalidLogLevel(t *testing.T) {
	yaml := `
defaults:
  username: "root"
  password: "password"

logging:
  level: "verbose"

endpoints:
  - node_id: "n1"
    host: "10.1.1.10"
`
	_, err := Parse([]byte(yaml))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid level")
}

func TestParse_InvalidLogFormat(t *testing.T) {
	yaml := `
defaults:
  username: "root"
  password: "password"

logging:
  format: "xml"

endpoints:
  - node_id: "n1"
    host: "10.1.1.10"
`
	_, err := Parse([]byte(yaml))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestEnvOverrides(t *testing.T) {
	os.Setenv("HSM_GROUPS_URL", "https://env-smd.example.com")
	os.Setenv("HSM_GROUPS_TOKEN", "env-token")
	os.Setenv("HSMR_DEFAULT_USER", "env-user")
	os.Setenv("HSMR_DEFAULT_PASS", "env-pass")
	os.Setenv("HSMR_LOG_LEVEL", "debug")
	defer func() {
		os.Unsetenv("HSM_GROUPS_URL")
		os.Unsetenv("HSM_GROUPS_TOKEN")
		os.Unsetenv("HSMR_DEFAULT_USER")
		os.Unsetenv("HSMR_DEFAULT_PASS")
		os.Unsetenv("HSMR_LOG_LEVEL")
	}()

	yaml := `
hsm_groups:
  url: "https://yaml-smd.example.com"
  token: "yaml-token"

defaults:
  username: "yaml-user"
  password: "yaml-pass"

logging:
  level: "info"

endpoints:
  - node_id: "n1"
    host: "10.1.1.10"
`
	cfg, err := Parse([]byte(yaml))
	require.NoError(t, err)

	assert.Equal(t, "https://env-smd.example.com", cfg.HSMGroups.URL)
	assert.Equal(t, "env-token", cfg.HSMGroups.Token)
	assert.Equal(t, "env-user", cfg.Defaults.Username)
	assert.Equal(t, "env-pass", cfg.Defaults.Password)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestEndpointConfig_GetDisplayName(t *testing.T) {
	tests := []struct {
		name     string
		endpoint EndpointConfig
		expected string
	}{
		{
			name:     "with node id",
			endpoint: EndpointConfig{NodeID: "n1", Host: "10.1.1.10"},
			expected: "n1",
		},
		{
			name:     "without node id",
			endpoint: EndpointConfig{Host: "10.1.1.10"},
			expected: "10.1.1.10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.endpoint.GetDisplayName())
		})
	}
}

func TestEndpointConfig_GetTimeout(t *testing.T) {
	defaultTimeout := 60 * time.Second

	t.Run("with custom timeout", func(t *testing.T) {
		secs := 30
		e := EndpointConfig{TimeoutSeconds: &secs}
		assert.Equal(t, 30*time.Second, e.GetTimeout(defaultTimeout))
	})

	t.Run("without custom timeout", func(t *testing.T) {
		e := EndpointConfig{}
		assert.Equal(t, defaultTimeout, e.GetTimeout(defaultTimeout))
	})
}

func TestHSMGroupsConfig_IsEnabled(t *testing.T) {
	tests := []struct {
		name     string
		config   HSMGroupsConfig
		expected bool
	}{
		{
			name:     "both set",
			config:   HSMGroupsConfig{URL: "https://smd.example.com", Token: "abc"},
			expected: true,
		},
		{
			name:     "only url",
			config:   HSMGroupsConfig{URL: "https://smd.example.com"},
			expected: false,
		},
		{
			name:     "only token",
			config:   HSMGroupsConfig{Token: "abc"},
			expected: false,
		},
		{
			name:     "neither",
			config:   HSMGroupsConfig{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.IsEnabled())
		})
	}
}

func TestHSMGroupsConfig_Timeout(t *testing.T) {
	tests := []struct {
		name     string
		seconds  int
		expected time.Duration
	}{
		{"positive", 30, 30 * time.Second},
		{"zero", 0, 30 * time.Second},
		{"negative", -5, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := HSMGroupsConfig{TimeoutSeconds: tt.seconds}
			assert.Equal(t, tt.expected, cfg.Timeout())
		})
	}
}

func TestDefaultsConfig_Timeout(t *testing.T) {
	tests := []struct {
		name     string
		seconds  int
		expected time.Duration
	}{
		{"positive", 30, 30 * time.Second},
		{"zero", 0, 60 * time.Second},
		{"negative", -5, 60 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultsConfig{TimeoutSeconds: tt.seconds}
			assert.Equal(t, tt.expected, cfg.Timeout())
		})
	}
}

func TestNewSingleEndpointConfig(t *testing.T) {
	cfg := NewSingleEndpointConfig("n1", "10.1.1.10", "admin", "secret")

	require.Len(t, cfg.Endpoints, 1)
	assert.Equal(t, "n1", cfg.Endpoints[0].NodeID)
	assert.Equal(t, "10.1.1.10", cfg.Endpoints[0].Host)
	assert.Equal(t, "admin", cfg.Endpoints[0].Username)
	assert.Equal(t, "secret", cfg.Endpoints[0].Password)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Equal(t, 60, cfg.Defaults.TimeoutSeconds)
}

func TestConcurrencyLimits(t *testing.T) {
	t.Run("upper limit", func(t *testing.T) {
		yaml := `
concurrency: 100

defaults:
  username: "root"
  password: "password"

endpoints:
  - node_id: "n1"
    host: "10.1.1.10"
`
		cfg, err := Parse([]byte(yaml))
		require.NoError(t, err)
		assert.Equal(t, 50, cfg.Concurrency)
	})

	t.Run("zero defaults to 5", func(t *testing.T) {
		yaml := `
concurrency: 0

defaults:
  username: "root"
  password: "password"

endpoints:
  - node_id: "n1"
    host: "10.1.1.10"
`
		cfg, err := Parse([]byte(yaml))
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.Concurrency)
	})
}

func TestEndpointCount(t *testing.T) {
	cfg := &Config{
		Endpoints: []EndpointConfig{
			{NodeID: "n1", Host: "host1"},
			{NodeID: "n2", Host: "host2"},
			{NodeID: "n3", Host: "host3"},
		},
	}
	assert.Equal(t, 3, cfg.EndpointCount())
}

func TestEndpointByNodeID(t *testing.T) {
	cfg := &Config{
		Endpoints: []EndpointConfig{
			{NodeID: "n1", Host: "host1"},
			{NodeID: "n2", Host: "host2"},
		},
	}

	ep, ok := cfg.EndpointByNodeID("n2")
	require.True(t, ok)
	assert.Equal(t, "host2", ep.Host)

	_, ok = cfg.EndpointByNodeID("missing")
	assert.False(t, ok)
}

func TestConfig_Merge(t *testing.T) {
	base := &Config{
		HSMGroups:   HSMGroupsConfig{URL: "https://base.example.com"},
		Concurrency: 5,
		Defaults:    DefaultsConfig{Username: "base-user"},
		Endpoints:   []EndpointConfig{{NodeID: "n1", Host: "host1"}},
	}

	other := &Config{
		HSMGroups:   HSMGroupsConfig{URL: "https://other.example.com", Token: "token"},
		Concurrency: 10,
		Endpoints:   []EndpointConfig{{NodeID: "n2", Host: "host2"}},
	}

	base.Merge(other)

	assert.Equal(t, "https://other.example.com", base.HSMGroups.URL)
	assert.Equal(t, "token", base.HSMGroups.Token)
	assert.Equal(t, 10, base.Concurrency)
	assert.Equal(t, "base-user", base.Defaults.Username) // Not overwritten
	assert.Len(t, base.Endpoints, 2)
}

func TestConfig_Merge_Nil(t *testing.T) {
	base := &Config{
		Concurrency: 5,
	}

	base.Merge(nil)

	assert.Equal(t, 5, base.Concurrency)
}
