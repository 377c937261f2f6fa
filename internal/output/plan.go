// Package output renders a domain.Plan and its ExplainRecord trail for
// operators: a stable two-line text format for scripting, a structured
// JSON form, and styled/tabular console views.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/yourusername/hsm-rebalance/internal/domain"
)

// PlanText renders plan in the stable scripting format: two
// newline-separated lines, each
// "<group-id> members: <comma-joined-sorted-node-ids>".
func PlanText(plan domain.Plan) string {
	sorted := plan.SortedCopy()
	var b strings.Builder
	fmt.Fprintf(&b, "%s members: %s\n", sorted.TargetGroup, joinNodeIDs(sorted.NewTarget))
	fmt.Fprintf(&b, "%s members: %s\n", sorted.ParentGroup, joinNodeIDs(sorted.NewParent))
	return b.String()
}

// WritePlanText writes PlanText(plan) to w.
func WritePlanText(w io.Writer, plan domain.Plan) error {
	_, err := io.WriteString(w, PlanText(plan))
	return err
}

// PlanJSON is the machine-readable rendering of a Plan, carrying the new
// memberships plus the requested/achieved/partial bookkeeping so consumers
// can tell whether the request was fully satisfied.
type PlanJSON struct {
	TargetGroup    string         `json:"target_group"`
	TargetMembers  []string       `json:"target_members"`
	ParentGroup    string         `json:"parent_group"`
	ParentMembers  []string       `json:"parent_members"`
	Requested      map[string]int `json:"requested"`
	Achieved       map[string]int `json:"achieved"`
	Partial        bool           `json:"partial"`
	RunID          string         `json:"run_id"`
}

// ToPlanJSON converts a domain.Plan to its JSON-friendly shape.
func ToPlanJSON(plan domain.Plan) PlanJSON {
	sorted := plan.SortedCopy()
	return PlanJSON{
		TargetGroup:   string(sorted.TargetGroup),
		TargetMembers: nodeIDStrings(sorted.NewTarget),
		ParentGroup:   string(sorted.ParentGroup),
		ParentMembers: nodeIDStrings(sorted.NewParent),
		Requested:     countsToStringMap(sorted.Requested),
		Achieved:      countsToStringMap(sorted.Achieved),
		Partial:       sorted.Partial,
		RunID:         sorted.RunID,
	}
}

// WritePlanJSON writes plan as indented JSON to w.
func WritePlanJSON(w io.Writer, plan domain.Plan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ToPlanJSON(plan))
}

func joinNodeIDs(ids []domain.NodeID) string {
	return strings.Join(nodeIDStrings(ids), ",")
}

func nodeIDStrings(ids []domain.NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func countsToStringMap(counts domain.DesiredCounts) map[string]int {
	out := make(map[string]int, len(counts))
	for k, v := range counts {
		out[string(k)] = v
	}
	return out
}
