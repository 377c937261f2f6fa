package redfish

import (
	"github.com/yourusername/hsm-rebalance/internal/config"
	"github.com/yourusername/hsm-rebalance/internal/domain"
)

// ConfigResolver adapts *config.Config to the EndpointResolver interface,
// looking up a node's BMC endpoint by matching domain.NodeID against each
// EndpointConfig.NodeID.
type ConfigResolver struct {
	cfg *config.Config
}

// NewConfigResolver returns an EndpointResolver backed by cfg.
func NewConfigResolver(cfg *config.Config) *ConfigResolver {
	return &ConfigResolver{cfg: cfg}
}

// Resolve implements EndpointResolver.
func (r *ConfigResolver) Resolve(node domain.NodeID) (config.EndpointConfig, bool) {
	return r.cfg.EndpointByNodeID(string(node))
}

// DefaultUsername implements EndpointResolver.
func (r *ConfigResolver) DefaultUsername() string { return r.cfg.Defaults.Username }

// DefaultPassword implements EndpointResolver.
func (r *ConfigResolver) DefaultPassword() string { return r.cfg.Defaults.Password }

// DefaultInsecureSkipVerify implements EndpointResolver.
func (r *ConfigResolver) DefaultInsecureSkipVerify() bool {
	return r.cfg.Defaults.GetInsecureSkipVerify()
}
