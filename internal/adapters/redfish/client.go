// Package redfish implements ports.InventoryReader against real BMC/iDRAC
// endpoints via github.com/stmcginnis/gofish.
//
// Accelerators are not a first-class Redfish collection the way CPUs and
// DIMMs are: this adapter follows the DMTF Redfish Processor schema, which
// models GPUs and other accelerators as redfish.Processor entries whose
// ProcessorType is GPU, FPGA, DSP, or Accelerator rather than CPU, and
// splits the system's Processors() collection on that field into the
// ProcessorModels/AcceleratorModels halves hwinventory.Document exposes by
// struct field.
package redfish

import (
	"context"
	"fmt"

	"github.com/stmcginnis/gofish"
	"github.com/stmcginnis/gofish/redfish"

	"github.com/yourusername/hsm-rebalance/internal/adapters/retry"
	"github.com/yourusername/hsm-rebalance/internal/config"
	"github.com/yourusername/hsm-rebalance/internal/domain"
	"github.com/yourusername/hsm-rebalance/internal/hwinventory"
	"github.com/yourusername/hsm-rebalance/internal/ports"
	hsmerrors "github.com/yourusername/hsm-rebalance/pkg/errors"
	"github.com/yourusername/hsm-rebalance/pkg/logging"
)

// acceleratorProcessorTypes is the set of redfish.ProcessorType values this
// adapter treats as an accelerator rather than a general-purpose CPU.
var acceleratorProcessorTypes = map[redfish.ProcessorType]bool{
	redfish.GPUProcessorType:         true,
	redfish.FPGAProcessorType:        true,
	redfish.AcceleratorProcessorType: true,
	redfish.DSPProcessorType:         true,
}

// Client implements ports.InventoryReader. It resolves a domain.NodeID to
// a BMC endpoint via the supplied EndpointResolver, then queries that BMC's
// Redfish service for its Systems collection.
type Client struct {
	resolver EndpointResolver
	retry    *retry.Policy
}

// EndpointResolver maps a NodeID to the BMC connection details needed to
// reach it; internal/config.Config (by way of EndpointByNodeID) is the
// production implementation.
type EndpointResolver interface {
	Resolve(node domain.NodeID) (config.EndpointConfig, bool)
	DefaultUsername() string
	DefaultPassword() string
	DefaultInsecureSkipVerify() bool
}

// NewClient returns a Client resolving endpoints through resolver.
func NewClient(resolver EndpointResolver, retryCfg config.RetryConfig) *Client {
	return &Client{resolver: resolver, retry: retry.New(retryCfg, "redfish")}
}

// Inventory implements ports.InventoryReader by connecting to node's BMC,
// reading its first ComputerSystem's Processors and Memory collections, and
// returning them as a hwinventory.Document (RawDocument).
func (c *Client) Inventory(ctx context.Context, node domain.NodeID) (ports.RawDocument, error) {
	ep, ok := c.resolver.Resolve(node)
	if !ok {
		return nil, hsmerrors.NewTransportError(string(node), fmt.Errorf("no Redfish endpoint configured for node %q", node))
	}

	logger := logging.WithComponent("redfish")

	doc, err := retry.Do(ctx, c.retry, "inventory", func() (hwinventory.Document, error) {
		return c.fetch(ctx, ep)
	})
	if err != nil {
		logger.Warnw("redfish inventory fetch failed", "node", string(node), "host", ep.Host, "error", err)
		return nil, hsmerrors.NewTransportError(string(node), err)
	}
	return doc, nil
}

func (c *Client) fetch(ctx context.Context, ep config.EndpointConfig) (hwinventory.Document, error) {
	username := ep.GetUsername(c.resolver.DefaultUsername())
	password := ep.GetPassword(c.resolver.DefaultPassword())
	insecure := ep.GetInsecureSkipVerify(c.resolver.DefaultInsecureSkipVerify())

	client, err := gofish.ConnectContext(ctx, gofish.ClientConfig{
		Endpoint: "https://" + ep.Host,
		Username: username,
		Password: password,
		Insecure: insecure,
	})
	if err != nil {
		return hwinventory.Document{}, fmt.Errorf("connect to %s: %w", ep.Host, err)
	}
	defer client.Logout()

	systems, err := client.Service.Systems()
	if err != nil {
		return hwinventory.Document{}, fmt.Errorf("list systems on %s: %w", ep.Host, err)
	}
	if len(systems) == 0 {
		return hwinventory.Document{}, nil
	}
	system := systems[0]

	node := hwinventory.Node{}

	processors, err := system.Processors()
	if err != nil {
		return hwinventory.Document{}, fmt.Errorf("list processors on %s: %w", ep.Host, err)
	}
	for _, p := range processors {
		if p.Model == "" {
			continue
		}
		if acceleratorProcessorTypes[p.ProcessorType] {
			node.NodeAccels = append(node.NodeAccels, hwinventory.NodeAccel{
				PopulatedFRU: &hwinventory.NodeAccelFRU{NodeAccelFRUInfo: hwinventory.NodeAccelFRUInfo{Model: p.Model}},
			})
		} else {
			node.Processors = append(node.Processors, hwinventory.Processor{
				PopulatedFRU: &hwinventory.ProcessorFRU{ProcessorFRUInfo: hwinventory.ProcessorFRUInfo{Model: p.Model}},
			})
		}
	}

	memModules, err := system.Memory()
	if err != nil {
		return hwinventory.Document{}, fmt.Errorf("list memory on %s: %w", ep.Host, err)
	}
	for _, m := range memModules {
		if m.CapacityMiB <= 0 {
			continue
		}
		node.Memory = append(node.Memory, hwinventory.Memory{
			PopulatedFRU: &hwinventory.MemoryFRU{MemoryFRUInfo: hwinventory.MemoryFRUInfo{CapacityMiB: int64(m.CapacityMiB)}},
		})
	}

	return hwinventory.Document{Nodes: []hwinventory.Node{node}}, nil
}
