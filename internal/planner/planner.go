// Package planner drives the two iterative loops (downscale TARGET,
// upscale TARGET) that repeatedly pick a best candidate, update state, and
// stop when no productive move remains, producing the final Plan. It
// implements ports.Planner.
package planner

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/yourusername/hsm-rebalance/internal/aggregate"
	"github.com/yourusername/hsm-rebalance/internal/delta"
	"github.com/yourusername/hsm-rebalance/internal/domain"
	"github.com/yourusername/hsm-rebalance/internal/fetch"
	"github.com/yourusername/hsm-rebalance/internal/pattern"
	"github.com/yourusername/hsm-rebalance/internal/ports"
	"github.com/yourusername/hsm-rebalance/internal/scorer"
	hsmerrors "github.com/yourusername/hsm-rebalance/pkg/errors"
	"github.com/yourusername/hsm-rebalance/pkg/logging"
)

// Planner implements ports.Planner. It holds no per-invocation state; every
// field is a stateless collaborator shared across calls.
type Planner struct {
	aggregator  *aggregate.Aggregator
	deltaEngine *delta.Engine
	scorer      *scorer.Scorer
	concurrency int
}

// New returns a Planner whose InventoryFetcher phase is bounded to
// concurrency simultaneous requests (0 falls back to defaults.FetchConcurrency
// inside internal/fetch).
func New(concurrency int) *Planner {
	agg := aggregate.New()
	return &Planner{
		aggregator:  agg,
		deltaEngine: delta.New(agg),
		scorer:      scorer.New(),
		concurrency: concurrency,
	}
}

// Plan runs the full pipeline and returns only the final Plan.
func (p *Planner) Plan(ctx context.Context, req ports.PlanRequest) (domain.Plan, error) {
	_, plan, err := p.run(ctx, req, false)
	return plan, err
}

// Explain runs the full pipeline and additionally returns the ordered
// per-candidate iteration trail for auditability.
func (p *Planner) Explain(ctx context.Context, req ports.PlanRequest) ([]ports.ExplainRecord, domain.Plan, error) {
	return p.run(ctx, req, true)
}

func (p *Planner) run(ctx context.Context, req ports.PlanRequest, explain bool) ([]ports.ExplainRecord, domain.Plan, error) {
	logger := logging.WithComponent("planner")
	runID := uuid.NewString()

	// Parse.
	targetGroup, desired, err := pattern.Parse(req.Pattern)
	if err != nil {
		logger.Errorw("pattern parse failed", "run_id", runID, "error", err)
		return nil, domain.Plan{}, err
	}
	logger.Infow("plan started", "run_id", runID, "target_group", string(targetGroup), "parent_group", string(req.ParentGroup))

	// Fetch: resolve group membership then fingerprint every member.
	targetMembers, err := req.Groups.Members(ctx, targetGroup)
	if err != nil {
		return nil, domain.Plan{}, err
	}
	parentMembers, err := req.Groups.Members(ctx, req.ParentGroup)
	if err != nil {
		return nil, domain.Plan{}, err
	}

	fetcher := fetch.New(req.Inventories, p.concurrency)
	targetInv, err := fetcher.Gather(ctx, targetMembers, desired)
	if err != nil {
		return nil, domain.Plan{}, err
	}
	parentInv, err := fetcher.Gather(ctx, parentMembers, desired)
	if err != nil {
		return nil, domain.Plan{}, err
	}

	// Aggregate + Delta.
	union := aggregate.UnionInventory(targetInv, parentInv)
	deltaResult, err := p.deltaEngine.Compute(targetInv, union, desired)
	if err != nil {
		logger.Errorw("delta computation failed", "run_id", runID, "error", err)
		return nil, domain.Plan{}, err
	}

	// Scarcity weights are defined over TARGET∪PARENT. That
	// union's total component counts are conserved across both loops: a
	// node only ever changes which side of the partition it is on, never
	// leaves the union — so weights computed once up front equal what
	// recomputing them after every mutation would yield; we avoid the
	// redundant recomputation.
	weights := p.aggregator.ScarcityWeights(union)
	unionFingerprints := fingerprintIndex(union)

	var records []ports.ExplainRecord
	maxMoves := len(union) + 1

	// Downscale loop: TARGET → PARENT.
	downscaleCandidates := append(domain.GroupInventory{}, targetInv...)
	removeDemand := deltaResult.ToRemoveFromTarget.Clone()
	var movedOut domain.GroupInventory
	iteration := 0
	for {
		if iteration > maxMoves {
			return nil, domain.Plan{}, invariantViolation("iteration bound", "downscale loop exceeded |union|+1 moves")
		}
		if len(downscaleCandidates) == 0 {
			break
		}

		filteredTargetTotals := p.aggregator.GroupTotalsFiltered(downscaleCandidates, aggregate.KeySet(deltaResult.FilteredDesired))

		scored := make([]scorer.Candidate, 0, len(downscaleCandidates))
		for _, nf := range downscaleCandidates {
			s := p.scorer.ScoreDownscale(nf.Fingerprint, deltaResult.FilteredDesired, filteredTargetTotals, removeDemand, weights)
			scored = append(scored, scorer.Candidate{NodeID: nf.NodeID, Score: s})
		}

		best, ok := scorer.PickBest(scored)
		if !ok {
			break
		}
		bestFP := unionFingerprints[best.NodeID]

		if explain {
			records = appendExplainRecords(records, iteration, "downscale", scored, best.NodeID, removeDemand)
		}

		// Every remaining candidate failed the scorer's safety check: no
		// removal is safe, so stop rather than commit a move that would
		// violate a requested floor (enforces the no-over-shoot invariant
		// when it is the only candidate left standing).
		if best.Score <= scorer.MinScore {
			break
		}
		if !anyKeyInDemand(bestFP, removeDemand) {
			break
		}
		if overshootsFloor(bestFP, removeDemand) {
			break
		}

		movedOut = append(movedOut, domain.NodeFingerprint{NodeID: best.NodeID, Fingerprint: bestFP})
		downscaleCandidates = removeNode(downscaleCandidates, best.NodeID)
		for key, count := range bestFP {
			removeDemand.Subtract(key, count)
		}
		iteration++
	}

	logger.Infow("downscale complete", "run_id", runID, "moved_out", len(movedOut))

	// Recompute what TARGET still needs after downscale: the original
	// to_add_to_target demand, inflated by anything downscale left short.
	remainingTargetTotals := p.aggregator.GroupTotalsFiltered(downscaleCandidates, aggregate.KeySet(deltaResult.FilteredDesired))
	addDemand := domain.NewDelta()
	for key, want := range deltaResult.FilteredDesired {
		short := want - remainingTargetTotals[key]
		if short > 0 {
			addDemand.Set(key, -short)
		}
	}

	// Upscale loop: PARENT → TARGET. Candidates are the original PARENT
	// plus whatever downscale just moved out — both are eligible to flow
	// into TARGET if they fit the remaining demand.
	upscaleCandidates := append(domain.GroupInventory{}, parentInv...)
	upscaleCandidates = append(upscaleCandidates, movedOut...)
	var movedIn domain.GroupInventory
	iteration = 0
	for {
		if iteration > maxMoves {
			return nil, domain.Plan{}, invariantViolation("iteration bound", "upscale loop exceeded |union|+1 moves")
		}
		if len(upscaleCandidates) == 0 || !addDemand.HasOutstanding() {
			break
		}

		scored := make([]scorer.Candidate, 0, len(upscaleCandidates))
		for _, nf := range upscaleCandidates {
			s := p.scorer.ScoreUpscale(nf.Fingerprint, addDemand, weights)
			scored = append(scored, scorer.Candidate{NodeID: nf.NodeID, Score: s})
		}

		best, ok := scorer.PickBest(scored)
		if !ok {
			break
		}
		bestFP := unionFingerprints[best.NodeID]

		if explain {
			records = appendExplainRecords(records, iteration, "upscale", scored, best.NodeID, addDemand)
		}

		movedIn = append(movedIn, domain.NodeFingerprint{NodeID: best.NodeID, Fingerprint: bestFP})
		upscaleCandidates = removeNode(upscaleCandidates, best.NodeID)
		for key, count := range bestFP {
			addDemand.Subtract(key, count)
		}
		iteration++
	}

	logger.Infow("upscale complete", "run_id", runID, "moved_in", len(movedIn))

	// Final reconciliation.
	newTargetIDs := append(downscaleCandidates.NodeIDs(), movedIn.NodeIDs()...)
	newParentIDs := upscaleCandidates.NodeIDs()

	requested := desired.Clone()
	achieved := make(domain.DesiredCounts, len(requested))
	partial := false
	for key, want := range requested {
		sum := 0
		for _, id := range newTargetIDs {
			sum += unionFingerprints[id][key]
		}
		achieved[key] = sum
		if sum < want {
			partial = true
		}
	}

	plan := domain.Plan{
		TargetGroup: targetGroup,
		ParentGroup: req.ParentGroup,
		NewTarget:   newTargetIDs,
		NewParent:   newParentIDs,
		Requested:   requested,
		Achieved:    achieved,
		Partial:     partial,
		RunID:       runID,
	}.SortedCopy()

	if partial {
		logger.Warnw("plan is partial: requested demand not fully satisfied", "run_id", runID)
	}
	logger.Infow("plan complete", "run_id", runID, "target_size", len(plan.NewTarget), "parent_size", len(plan.NewParent))

	return records, plan, nil
}

func invariantViolation(invariant, detail string) error {
	return hsmerrors.NewInternalInvariantViolation(invariant, detail)
}

func fingerprintIndex(inv domain.GroupInventory) map[domain.NodeID]domain.Fingerprint {
	idx := make(map[domain.NodeID]domain.Fingerprint, len(inv))
	for _, nf := range inv {
		idx[nf.NodeID] = nf.Fingerprint
	}
	return idx
}

func removeNode(inv domain.GroupInventory, id domain.NodeID) domain.GroupInventory {
	out := make(domain.GroupInventory, 0, len(inv)-1)
	for _, nf := range inv {
		if nf.NodeID != id {
			out = append(out, nf)
		}
	}
	return out
}

func anyKeyInDemand(fp domain.Fingerprint, demand domain.Delta) bool {
	for key := range fp {
		if demand.Magnitude(key) > 0 {
			return true
		}
	}
	return false
}

// overshootsFloor implements downscale termination test (c): stop if
// removing the best candidate would drop some demanded key below the
// requested floor, i.e. the candidate carries more of key k than is still
// outstanding to remove.
func overshootsFloor(fp domain.Fingerprint, demand domain.Delta) bool {
	for key, count := range fp {
		if count == 0 {
			continue
		}
		mag := demand.Magnitude(key)
		if mag > 0 && mag < count {
			return true
		}
	}
	return false
}

func appendExplainRecords(records []ports.ExplainRecord, iteration int, direction string, scored []scorer.Candidate, chosen domain.NodeID, demand domain.Delta) []ports.ExplainRecord {
	sorted := make([]scorer.Candidate, len(scored))
	copy(sorted, scored)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].NodeID < sorted[j].NodeID })

	for _, c := range sorted {
		records = append(records, ports.ExplainRecord{
			Iteration:    iteration,
			Direction:    direction,
			Candidate:    c.NodeID,
			Score:        c.Score,
			Chosen:       c.NodeID == chosen,
			DemandBefore: demand.Clone(),
		})
	}
	return records
}
