// Package fetch implements the bounded-concurrency gatherer that batches
// InventoryReader calls: buffered jobs/results channels, a fixed number of
// workers, a sync.WaitGroup, and a separate goroutine that closes the
// results channel once all workers finish.
package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/yourusername/hsm-rebalance/internal/domain"
	"github.com/yourusername/hsm-rebalance/internal/hwinventory"
	"github.com/yourusername/hsm-rebalance/internal/ports"
	"github.com/yourusername/hsm-rebalance/pkg/defaults"
	hsmerrors "github.com/yourusername/hsm-rebalance/pkg/errors"
	"github.com/yourusername/hsm-rebalance/pkg/logging"
)

// Fetcher gathers per-node Fingerprints from a ports.InventoryReader with
// at most concurrency requests outstanding at once.
type Fetcher struct {
	reader      ports.InventoryReader
	fingerprint *hwinventory.Fingerprinter
	concurrency int
}

// New returns a Fetcher bounded to concurrency simultaneous
// InventoryReader calls. A non-positive concurrency falls back to
// defaults.FetchConcurrency.
func New(reader ports.InventoryReader, concurrency int) *Fetcher {
	if concurrency <= 0 {
		concurrency = defaults.FetchConcurrency
	}
	return &Fetcher{
		reader:      reader,
		fingerprint: hwinventory.NewFingerprinter(),
		concurrency: concurrency,
	}
}

type job struct {
	nodeID domain.NodeID
}

type result struct {
	nodeID      domain.NodeID
	fingerprint domain.Fingerprint
	err         error
	duration    time.Duration
}

// Gather fetches and fingerprints inventory for every node in nodeIDs,
// using requested as the set of component keys the Fingerprinter should
// prefer when absorbing model strings. A per-node TransportError is logged
// and the node is omitted from the returned GroupInventory rather than
// failing the whole gather; a document missing expected substructure still
// yields a Fingerprint (memory bucket only) and the node is kept. The
// result is sorted by NodeID.
func (f *Fetcher) Gather(ctx context.Context, nodeIDs []domain.NodeID, requested domain.DesiredCounts) (domain.GroupInventory, error) {
	logger := logging.WithComponent("fetch")

	if len(nodeIDs) == 0 {
		return domain.GroupInventory{}, nil
	}

	jobs := make(chan job, len(nodeIDs))
	results := make(chan result, len(nodeIDs))

	var wg sync.WaitGroup
	for i := 0; i < f.concurrency; i++ {
		wg.Add(1)
		go f.worker(ctx, &wg, jobs, results, requested)
	}

	for _, id := range nodeIDs {
		jobs <- job{nodeID: id}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	inventory := make(domain.GroupInventory, 0, len(nodeIDs))
	for r := range results {
		if r.err != nil {
			logger.Warnw("inventory fetch failed, omitting node",
				"node", string(r.nodeID), "error", r.err, "duration", r.duration)
			continue
		}
		logger.Debugw("inventory fetch complete",
			"node", string(r.nodeID), "components", len(r.fingerprint), "duration", r.duration)
		inventory = append(inventory, domain.NodeFingerprint{NodeID: r.nodeID, Fingerprint: r.fingerprint})
	}

	return inventory.SortByNodeID(), nil
}

func (f *Fetcher) worker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan job, results chan<- result, requested domain.DesiredCounts) {
	defer wg.Done()
	for j := range jobs {
		select {
		case <-ctx.Done():
			results <- result{nodeID: j.nodeID, err: hsmerrors.NewTransportError(string(j.nodeID), ctx.Err())}
			continue
		default:
		}
		results <- f.fetchOne(ctx, j.nodeID, requested)
	}
}

func (f *Fetcher) fetchOne(ctx context.Context, nodeID domain.NodeID, requested domain.DesiredCounts) result {
	start := time.Now()
	doc, err := f.reader.Inventory(ctx, nodeID)
	if err != nil {
		return result{nodeID: nodeID, err: hsmerrors.NewTransportError(string(nodeID), err), duration: time.Since(start)}
	}

	fp := f.fingerprint.Fingerprint(nodeID, doc, requested)
	return result{nodeID: nodeID, fingerprint: fp, duration: time.Since(start)}
}
