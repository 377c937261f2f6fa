package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/hsm-rebalance/internal/domain"
)

func TestParse_ValidPattern(t *testing.T) {
	group, desired, err := Parse("zinal:a100:4:epyc:30:instinct:2")
	require.NoError(t, err)
	assert.Equal(t, domain.GroupID("zinal"), group)
	assert.Equal(t, domain.DesiredCounts{"a100": 4, "epyc": 30, "instinct": 2}, desired)
}

func TestParse_LowerCases(t *testing.T) {
	group, desired, err := Parse("Zinal:A100:4")
	require.NoError(t, err)
	assert.Equal(t, domain.GroupID("zinal"), group)
	assert.Equal(t, 4, desired["a100"])
}

func TestParse_GroupOnly(t *testing.T) {
	group, desired, err := Parse("zinal")
	require.NoError(t, err)
	assert.Equal(t, domain.GroupID("zinal"), group)
	assert.Empty(t, desired)
}

func TestParse_MalformedCases(t *testing.T) {
	cases := []string{
		"",
		"g:a100",           // odd trailing token
		"g:a100:four",      // non-integer count
		"g:a100:-1",        // negative count
		"g:a100:4:a100:2",  // duplicate key
		":a100:4",          // empty group id
		"g::4",             // empty component key
	}
	for _, c := range cases {
		_, _, err := Parse(c)
		assert.Error(t, err, "expected error for pattern %q", c)
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	counts := domain.DesiredCounts{"a100": 4, "epyc": 30}
	formatted := Format("zinal", counts)

	group, parsed, err := Parse(formatted)
	require.NoError(t, err)
	assert.Equal(t, domain.GroupID("zinal"), group)
	assert.Equal(t, counts, parsed)
}

func TestFormat_EmptyCounts(t *testing.T) {
	assert.Equal(t, "zinal", Format("zinal", domain.DesiredCounts{}))
}

func TestFormat_Deterministic(t *testing.T) {
	counts := domain.DesiredCounts{"epyc": 30, "a100": 4, "instinct": 2}
	first := Format("zinal", counts)
	second := Format("zinal", counts)
	assert.Equal(t, first, second)
	assert.Equal(t, "zinal:a100:4:epyc:30:instinct:2", first)
}
