// Package scorer assigns each candidate node a real-valued score for a
// given direction (downscale or upscale), reflecting how well moving that
// node advances the current demand, weighted by component scarcity.
package scorer

import (
	"math"
	"sort"

	"github.com/yourusername/hsm-rebalance/internal/domain"
)

// Scorer holds no state; every method is a pure function of its arguments.
type Scorer struct{}

// New returns a Scorer.
func New() *Scorer {
	return &Scorer{}
}

// MinScore is assigned to a downscale candidate whose removal would violate
// DesiredCounts; it must compare lower than any real contribution sum.
const MinScore = math.MinInt32

// ScoreDownscale scores a candidate currently in TARGET for removal.
// candidate is its Fingerprint; targetTotals are the TARGET's current
// filtered totals; toRemove is the outstanding removal demand; weights are
// the current scarcity weights over TARGET∪PARENT.
func (s *Scorer) ScoreDownscale(
	candidate domain.Fingerprint,
	desired domain.DesiredCounts,
	targetTotals map[domain.ComponentKey]int,
	toRemove domain.Delta,
	weights domain.ScarcityWeights,
) float64 {
	// Step 1 — safety: removing this node must not drop any requested key
	// below its floor.
	for key, want := range desired {
		if targetTotals[key]-candidate[key] < want {
			return MinScore
		}
	}

	// Step 2 — per-component contribution.
	keys := sortedKeys(candidate)
	score := 0.0
	for _, key := range keys {
		count := candidate[key]
		if count == 0 {
			continue
		}
		weight := weights.Get(key)
		if toRemove.Magnitude(key) > 0 {
			score += 100 - weight
		} else {
			score -= 100 - weight
		}
	}
	return score
}

// ScoreUpscale scores a candidate currently in PARENT for insertion into
// TARGET. toAdd is the outstanding addition demand; weights are the current
// scarcity weights over TARGET∪PARENT.
func (s *Scorer) ScoreUpscale(
	candidate domain.Fingerprint,
	toAdd domain.Delta,
	weights domain.ScarcityWeights,
) float64 {
	keys := sortedKeys(candidate)
	score := 0.0
	for _, key := range keys {
		count := candidate[key]
		if count == 0 {
			continue
		}
		weight := weights.Get(key)
		if toAdd.Magnitude(key) > 0 {
			score += 100 - weight
		} else {
			score -= 100 - weight
		}
	}
	return score
}

// Candidate pairs a NodeID with its computed score, for PickBest.
type Candidate struct {
	NodeID domain.NodeID
	Score  float64
}

// PickBest returns the candidate with the highest score; ties are broken by
// the first NodeID in sorted order, for determinism. ok is false if
// candidates is empty.
func PickBest(candidates []Candidate) (best Candidate, ok bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].NodeID < sorted[j].NodeID })

	best = sorted[0]
	for _, c := range sorted[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return best, true
}

func sortedKeys(fp domain.Fingerprint) []domain.ComponentKey {
	keys := make([]domain.ComponentKey, 0, len(fp))
	for k := range fp {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
