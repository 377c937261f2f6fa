package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/yourusername/hsm-rebalance/internal/domain"
	"github.com/yourusername/hsm-rebalance/internal/ports"
)

// ExplainTable renders an ExplainRecord trail as a table: one row per
// candidate evaluation, grouped by iteration/direction, with the chosen
// row marked.
func ExplainTable(w io.Writer, records []ports.ExplainRecord) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Iter", "Direction", "Candidate", "Score", "Chosen", "Demand"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, r := range records {
		chosen := ""
		if r.Chosen {
			chosen = "*"
		}
		table.Append([]string{
			strconv.Itoa(r.Iteration),
			r.Direction,
			string(r.Candidate),
			strconv.FormatFloat(r.Score, 'f', 2, 64),
			chosen,
			demandSummary(r.DemandBefore),
		})
	}

	table.Render()
}

func demandSummary(d domain.Delta) string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	out := ""
	for i, k := range keys {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s:%d", k, d[domain.ComponentKey(k)])
	}
	return out
}
