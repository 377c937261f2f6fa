package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/yourusername/hsm-rebalance/internal/domain"
	"github.com/yourusername/hsm-rebalance/internal/output"
	"github.com/yourusername/hsm-rebalance/internal/planner"
	"github.com/yourusername/hsm-rebalance/internal/ports"
)

type explainFlags struct {
	parent      string
	concurrency int
}

func newExplainCommand(root *rootFlags) *cobra.Command {
	f := &explainFlags{}

	cmd := &cobra.Command{
		Use:   "explain <pattern>",
		Short: "print the per-iteration candidate scoring trail for a pattern, then the resulting plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			groups, inventories := buildCollaborators(cfg)
			p := planner.New(f.concurrency)

			records, plan, err := p.Explain(ctx, ports.PlanRequest{
				Pattern:     args[0],
				ParentGroup: domain.GroupID(f.parent),
				Groups:      groups,
				Inventories: inventories,
			})
			if err != nil {
				return err
			}

			output.ExplainTable(os.Stdout, records)
			output.WriteConsoleSummary(os.Stdout, plan)
			return nil
		},
	}

	cmd.Flags().StringVar(&f.parent, "parent", "free", "parent (free-pool) group id")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "max concurrent inventory fetches (0 = default)")

	return cmd
}
