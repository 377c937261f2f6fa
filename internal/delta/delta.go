// Package delta computes the signed requirement vector needed to bring
// TARGET to the requested composition.
package delta

import (
	"github.com/yourusername/hsm-rebalance/internal/aggregate"
	"github.com/yourusername/hsm-rebalance/internal/domain"
	hsmerrors "github.com/yourusername/hsm-rebalance/pkg/errors"
)

// Engine computes (to_remove_from_target, to_add_to_target) from the
// desired counts, the TARGET∪PARENT union, and the TARGET's current
// composition.
type Engine struct {
	aggregator *aggregate.Aggregator
}

// New returns a delta Engine backed by the given Aggregator.
func New(aggregator *aggregate.Aggregator) *Engine {
	return &Engine{aggregator: aggregator}
}

// Result carries both signed maps the Planner needs to seed its two loops.
type Result struct {
	ToRemoveFromTarget domain.Delta
	ToAddToTarget      domain.Delta
	// FilteredDesired is DesiredCounts restricted to keys present anywhere
	// in the union; a key absent from the union cannot be satisfied and is
	// silently dropped.
	FilteredDesired domain.DesiredCounts
}

// Compute derives the delta. targetInv and union are the current TARGET
// inventory and the TARGET∪PARENT union inventory, respectively.
func (e *Engine) Compute(targetInv, union domain.GroupInventory, desired domain.DesiredCounts) (Result, error) {
	unionTotals := e.aggregator.GroupTotals(union)

	filtered := make(domain.DesiredCounts, len(desired))
	for key, count := range desired {
		if _, present := unionTotals[key]; present {
			filtered[key] = count
		}
	}

	targetTotals := e.aggregator.GroupTotalsFiltered(targetInv, aggregate.KeySet(filtered))

	toRemove := domain.NewDelta()
	toAdd := domain.NewDelta()

	for key, want := range filtered {
		d := want - targetTotals[key]
		switch {
		case d > 0:
			toAdd.Set(key, -d)
		case d < 0:
			toRemove.Set(key, d)
		}
	}

	// Any component the TARGET carries that the user did not request
	// belongs in PARENT: accumulate its whole count as an extra removal.
	unrequested := make(map[domain.ComponentKey]int)
	for _, nf := range targetInv {
		for key, count := range nf.Fingerprint {
			if _, requested := filtered[key]; !requested {
				unrequested[key] += count
			}
		}
	}
	for key, count := range unrequested {
		if count <= 0 {
			continue
		}
		toRemove.Set(key, toRemove[key]-count)
	}

	for key := range toAdd {
		requested := filtered[key]
		available := unionTotals[key]
		if available < requested {
			return Result{}, hsmerrors.NewInsufficientCapacityError(string(key), requested, available)
		}
	}

	return Result{
		ToRemoveFromTarget: toRemove,
		ToAddToTarget:      toAdd,
		FilteredDesired:    filtered,
	}, nil
}
