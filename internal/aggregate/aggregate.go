// Package aggregate folds a GroupInventory into group-level totals, per-node
// density, and normalized scarcity weights. Map iteration order is never
// allowed to leak into results: anything order-sensitive walks a sorted key
// slice first.
package aggregate

import (
	"sort"

	"github.com/yourusername/hsm-rebalance/internal/domain"
	"github.com/yourusername/hsm-rebalance/pkg/defaults"
)

// Aggregator computes group_totals, filtered totals, density_per_node, and
// scarcity weights from a GroupInventory.
type Aggregator struct{}

// New returns an Aggregator. It holds no state; all methods are pure
// functions of their arguments.
func New() *Aggregator {
	return &Aggregator{}
}

// GroupTotals sums each ComponentKey's count across every node in inv.
func (a *Aggregator) GroupTotals(inv domain.GroupInventory) map[domain.ComponentKey]int {
	totals := make(map[domain.ComponentKey]int)
	for _, nf := range inv {
		for key, count := range nf.Fingerprint {
			totals[key] += count
		}
	}
	return totals
}

// GroupTotalsFiltered is GroupTotals restricted to the key set keys, used
// when comparing a group's totals against DesiredCounts.
func (a *Aggregator) GroupTotalsFiltered(inv domain.GroupInventory, keys map[domain.ComponentKey]bool) map[domain.ComponentKey]int {
	totals := make(map[domain.ComponentKey]int, len(keys))
	for _, nf := range inv {
		for key, count := range nf.Fingerprint {
			if keys[key] {
				totals[key] += count
			}
		}
	}
	return totals
}

// DensityPerNode maps each NodeID in inv to the sum of its component
// counts. Every NodeID in inv appears exactly once in the result.
func (a *Aggregator) DensityPerNode(inv domain.GroupInventory) map[domain.NodeID]int {
	density := make(map[domain.NodeID]int, len(inv))
	for _, nf := range inv {
		density[nf.NodeID] = nf.Fingerprint.Density()
	}
	return density
}

// ScarcityWeights computes, for the union inventory U, each component's
// normalized weight w = SCARCITY_SCALE * (count_in_U / total_components).
// Each weight is computed independently from integer totals, so the result
// does not depend on map iteration order.
func (a *Aggregator) ScarcityWeights(union domain.GroupInventory) domain.ScarcityWeights {
	totals := a.GroupTotals(union)

	grandTotal := 0
	keys := make([]string, 0, len(totals))
	for key, count := range totals {
		grandTotal += count
		keys = append(keys, string(key))
	}
	sort.Strings(keys)

	weights := make(domain.ScarcityWeights, len(totals))
	if grandTotal == 0 {
		return weights
	}
	for _, k := range keys {
		key := domain.ComponentKey(k)
		weights[key] = float64(defaults.ScarcityScale) * float64(totals[key]) / float64(grandTotal)
	}
	return weights
}

// UnionInventory concatenates two group inventories into a single union,
// used as the basis for scarcity weighting over TARGET ∪ PARENT.
func UnionInventory(a, b domain.GroupInventory) domain.GroupInventory {
	out := make(domain.GroupInventory, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

// KeySet builds a membership set from a DesiredCounts map, for use with
// GroupTotalsFiltered.
func KeySet(counts domain.DesiredCounts) map[domain.ComponentKey]bool {
	set := make(map[domain.ComponentKey]bool, len(counts))
	for k := range counts {
		set[k] = true
	}
	return set
}
