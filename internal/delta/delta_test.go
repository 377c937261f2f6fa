package delta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/hsm-rebalance/internal/aggregate"
	"github.com/yourusername/hsm-rebalance/internal/domain"
	hsmerrors "github.com/yourusername/hsm-rebalance/pkg/errors"
)

func nf(id domain.NodeID, fp domain.Fingerprint) domain.NodeFingerprint {
	return domain.NodeFingerprint{NodeID: id, Fingerprint: fp}
}

func TestCompute_UnrequestedComponentsQueuedForRemoval(t *testing.T) {
	target := domain.GroupInventory{
		nf("n1", domain.Fingerprint{"a100": 4}),
		nf("n2", domain.Fingerprint{"a100": 4}),
		nf("n3", domain.Fingerprint{"epyc": 2}),
	}
	parent := domain.GroupInventory{}
	union := aggregate.UnionInventory(target, parent)
	desired := domain.DesiredCounts{"a100": 8}

	eng := New(aggregate.New())
	result, err := eng.Compute(target, union, desired)
	require.NoError(t, err)

	assert.Equal(t, 0, result.ToAddToTarget.Magnitude("a100"))
	assert.Equal(t, 2, result.ToRemoveFromTarget.Magnitude("epyc"))
}

func TestCompute_InsufficientCapacity(t *testing.T) {
	target := domain.GroupInventory{nf("n1", domain.Fingerprint{"a100": 1})}
	parent := domain.GroupInventory{nf("n2", domain.Fingerprint{"epyc": 2})}
	union := aggregate.UnionInventory(target, parent)
	desired := domain.DesiredCounts{"a100": 4}

	eng := New(aggregate.New())
	_, err := eng.Compute(target, union, desired)

	require.Error(t, err)
	var capErr *hsmerrors.InsufficientCapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, "a100", capErr.Component)
	assert.Equal(t, 4, capErr.Requested)
	assert.Equal(t, 1, capErr.Available)
}

func TestCompute_UnrequestedKeyDroppedSilently(t *testing.T) {
	target := domain.GroupInventory{nf("n1", domain.Fingerprint{"a100": 4})}
	parent := domain.GroupInventory{}
	union := aggregate.UnionInventory(target, parent)
	// "instinct" is not present anywhere in the union.
	desired := domain.DesiredCounts{"a100": 4, "instinct": 2}

	eng := New(aggregate.New())
	result, err := eng.Compute(target, union, desired)
	require.NoError(t, err)

	assert.NotContains(t, result.FilteredDesired, domain.ComponentKey("instinct"))
}

func TestCompute_ExactMatchYieldsEmptyDelta(t *testing.T) {
	target := domain.GroupInventory{nf("n1", domain.Fingerprint{"a100": 4, "epyc": 2})}
	parent := domain.GroupInventory{nf("n2", domain.Fingerprint{"epyc": 2})}
	union := aggregate.UnionInventory(target, parent)
	desired := domain.DesiredCounts{"a100": 4, "epyc": 2}

	eng := New(aggregate.New())
	result, err := eng.Compute(target, union, desired)
	require.NoError(t, err)

	assert.False(t, result.ToAddToTarget.HasOutstanding())
	assert.False(t, result.ToRemoveFromTarget.HasOutstanding())
}
