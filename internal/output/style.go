package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yourusername/hsm-rebalance/internal/domain"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	groupStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	warnStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// WriteConsoleSummary renders a styled, human-facing summary of plan: the
// new membership per group plus a requested/achieved line per component.
func WriteConsoleSummary(w io.Writer, plan domain.Plan) {
	sorted := plan.SortedCopy()

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Plan %s", sorted.RunID)))
	fmt.Fprintln(w, strings.Repeat("─", 60))

	fmt.Fprintf(w, "%s (%d members): %s\n",
		groupStyle.Render(string(sorted.TargetGroup)), len(sorted.NewTarget), joinNodeIDs(sorted.NewTarget))
	fmt.Fprintf(w, "%s (%d members): %s\n",
		groupStyle.Render(string(sorted.ParentGroup)), len(sorted.NewParent), joinNodeIDs(sorted.NewParent))

	fmt.Fprintln(w, strings.Repeat("─", 60))
	for _, key := range sortedComponentKeys(sorted.Requested) {
		line := fmt.Sprintf("%-16s requested=%-4d achieved=%-4d", key, sorted.Requested[domain.ComponentKey(key)], sorted.Achieved[domain.ComponentKey(key)])
		fmt.Fprintln(w, dimStyle.Render(line))
	}

	if sorted.Partial {
		fmt.Fprintln(w, warnStyle.Render("plan is partial: requested demand not fully satisfied"))
	}
}

func sortedComponentKeys(counts domain.DesiredCounts) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return keys
}
