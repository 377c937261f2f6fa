package redfish

import (
	"testing"

	"github.com/stmcginnis/gofish/redfish"
	"github.com/stretchr/testify/assert"

	"github.com/yourusername/hsm-rebalance/internal/config"
	"github.com/yourusername/hsm-rebalance/internal/domain"
)

func TestConfigResolver_Resolve(t *testing.T) {
	cfg := &config.Config{
		Endpoints: []config.EndpointConfig{
			{NodeID: "n1", Host: "10.0.0.1"},
		},
		Defaults: config.DefaultsConfig{Username: "admin", Password: "secret"},
	}
	resolver := NewConfigResolver(cfg)

	ep, ok := resolver.Resolve(domain.NodeID("n1"))
	assert.True(t, ok)
	assert.Equal(t, "10.0.0.1", ep.Host)

	_, ok = resolver.Resolve(domain.NodeID("missing"))
	assert.False(t, ok)

	assert.Equal(t, "admin", resolver.DefaultUsername())
	assert.Equal(t, "secret", resolver.DefaultPassword())
}

func TestAcceleratorProcessorTypes_ClassifiesGPUNotCPU(t *testing.T) {
	assert.True(t, acceleratorProcessorTypes[redfish.GPUProcessorType])
	assert.False(t, acceleratorProcessorTypes[redfish.CPUProcessorType])
}
