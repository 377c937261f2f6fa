// Package pattern parses the colon-separated textual request
// ("<target-group>:<component>:<count>(:<component>:<count>)*") into a
// target group id and a desired-count mapping, and formats the inverse,
// rendering a group's current totals back into the same syntax for the
// "pattern dump" subcommand.
package pattern

import (
	"sort"
	"strconv"
	"strings"

	"github.com/yourusername/hsm-rebalance/internal/domain"
	hsmerrors "github.com/yourusername/hsm-rebalance/pkg/errors"
)

// Parse lower-cases the entire input, splits on ':', takes the first token
// as the target group id, and consumes the remainder in (component, count)
// pairs. An empty pattern after the group name is valid and yields an empty
// DesiredCounts.
func Parse(raw string) (domain.GroupID, domain.DesiredCounts, error) {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	if lowered == "" {
		return "", nil, hsmerrors.NewMalformedPatternError(raw, "empty pattern")
	}

	tokens := strings.Split(lowered, ":")
	groupID := tokens[0]
	if groupID == "" {
		return "", nil, hsmerrors.NewMalformedPatternError(raw, "empty group id")
	}

	rest := tokens[1:]
	if len(rest)%2 != 0 {
		return "", nil, hsmerrors.NewMalformedPatternError(raw, "odd trailing token after group id")
	}

	desired := make(domain.DesiredCounts, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		key := domain.ComponentKey(rest[i])
		countTok := rest[i+1]

		if key == "" {
			return "", nil, hsmerrors.NewMalformedPatternError(raw, "empty component key")
		}
		if _, exists := desired[key]; exists {
			return "", nil, hsmerrors.NewMalformedPatternError(raw, "duplicate component key \""+string(key)+"\"")
		}

		count, err := strconv.Atoi(countTok)
		if err != nil || count < 0 {
			return "", nil, hsmerrors.NewMalformedPatternError(raw, "non-negative integer required for component \""+string(key)+"\"")
		}

		desired[key] = count
	}

	return domain.GroupID(groupID), desired, nil
}

// Format renders counts back into the normative pattern syntax, sorted by
// component key for determinism — the inverse of Parse, used by the pattern
// dump command.
func Format(group domain.GroupID, counts domain.DesiredCounts) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(group))
	for _, k := range keys {
		b.WriteByte(':')
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(counts[domain.ComponentKey(k)]))
	}
	return b.String()
}
