// Package ports defines the narrow capability interfaces the core consumes
// (GroupReader, InventoryReader) and the interface it emits (Planner), so
// that collaborators — HTTP clients, CLI flags, output formatters — never
// leak into the algorithmic engine as concrete types.
package ports

import (
	"context"

	"github.com/yourusername/hsm-rebalance/internal/domain"
)

// GroupReader resolves a group's current node membership. Implementations
// talk to whatever membership service backs the cluster. If the group is
// unknown, Members returns an empty slice and a nil error, not ErrNotFound:
// the core treats an unknown group as a newly created, empty one.
type GroupReader interface {
	Members(ctx context.Context, group domain.GroupID) ([]domain.NodeID, error)
}

// InventoryReader fetches the raw hardware-inventory document for one node.
// The returned document is an arbitrary tree; internal/hwinventory knows how
// to extract a Fingerprint from it. Implementations own their own retry and
// timeout policy; the core never retries.
type InventoryReader interface {
	Inventory(ctx context.Context, node domain.NodeID) (RawDocument, error)
}

// RawDocument is the untyped hardware-inventory payload handed to
// internal/hwinventory for fingerprinting. Adapters are free to populate it
// from JSON, Redfish client structs, or anything else that can answer the
// three pointer-like lookups hwinventory.Fingerprinter performs.
type RawDocument interface {
	// ProcessorModels returns raw processor FRU model strings (case as
	// reported by the source), or nil if the document has no processor
	// substructure. hwinventory.Fingerprinter lower-cases them.
	ProcessorModels() []string
	// AcceleratorModels returns raw accelerator FRU model strings, or nil
	// if the document has no accelerator substructure.
	AcceleratorModels() []string
	// MemoryCapacitiesMiB returns each populated DIMM's capacity in MiB, or
	// nil if the document has no memory substructure.
	MemoryCapacitiesMiB() []int64
}

// ExplainRecord is one row of the structured audit trail Planner.Explain
// produces: the state of a single candidate evaluation within a single
// iteration of either loop.
type ExplainRecord struct {
	Iteration    int
	Direction    string // "downscale" or "upscale"
	Candidate    domain.NodeID
	Score        float64
	Chosen       bool
	DemandBefore domain.Delta
}

// Planner is the emitted interface: given inputs, produce a Plan, or a
// parallel explain trail for auditability.
type Planner interface {
	Plan(ctx context.Context, req PlanRequest) (domain.Plan, error)
	Explain(ctx context.Context, req PlanRequest) ([]ExplainRecord, domain.Plan, error)
}

// PlanRequest bundles everything a Planner invocation needs: the raw
// pattern string (the target group id and DesiredCounts are derived from it
// by the Planner's own Parse step), the parent group id, and the two
// collaborator interfaces.
type PlanRequest struct {
	Pattern     string
	ParentGroup domain.GroupID
	Groups      GroupReader
	Inventories InventoryReader
}
