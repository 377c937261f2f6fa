package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourusername/hsm-rebalance/internal/adapters/hsmgroups"
	"github.com/yourusername/hsm-rebalance/internal/adapters/redfish"
	"github.com/yourusername/hsm-rebalance/internal/config"
	"github.com/yourusername/hsm-rebalance/internal/domain"
	"github.com/yourusername/hsm-rebalance/internal/output"
	"github.com/yourusername/hsm-rebalance/internal/planner"
	"github.com/yourusername/hsm-rebalance/internal/ports"
	"github.com/yourusername/hsm-rebalance/pkg/logging"
)

type planFlags struct {
	parent      string
	concurrency int
	outputMode  string
	apply       bool
}

func newPlanCommand(root *rootFlags) *cobra.Command {
	f := &planFlags{}

	cmd := &cobra.Command{
		Use:   "plan <pattern>",
		Short: "compute a new TARGET/PARENT membership for the requested pattern",
		Long: "plan parses a pattern of the form \"<target-group>:<component>:<count>...\", " +
			"fetches TARGET/PARENT membership and per-node hardware inventory, and computes " +
			"the new membership that best satisfies the requested composition.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			groups, inventories := buildCollaborators(cfg)
			p := planner.New(f.concurrency)

			plan, err := p.Plan(ctx, ports.PlanRequest{
				Pattern:     args[0],
				ParentGroup: domain.GroupID(f.parent),
				Groups:      groups,
				Inventories: inventories,
			})
			if err != nil {
				return err
			}

			if err := renderPlan(plan, f.outputMode); err != nil {
				return err
			}

			if f.apply {
				return applyPlan(ctx, groups, plan)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&f.parent, "parent", "free", "parent (free-pool) group id")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "max concurrent inventory fetches (0 = default)")
	cmd.Flags().StringVar(&f.outputMode, "output", "text", "output format: text, json, console")
	cmd.Flags().BoolVar(&f.apply, "apply", false, "write the computed membership back to the group service")

	return cmd
}

func buildCollaborators(cfg *config.Config) (*hsmgroups.Client, ports.InventoryReader) {
	groups := hsmgroups.NewClient(cfg.HSMGroups, cfg.Retry)
	inventories := redfish.NewClient(redfish.NewConfigResolver(cfg), cfg.Retry)
	return groups, inventories
}

func renderPlan(plan domain.Plan, mode string) error {
	switch mode {
	case "json":
		return output.WritePlanJSON(os.Stdout, plan)
	case "console":
		output.WriteConsoleSummary(os.Stdout, plan)
		return nil
	case "text":
		return output.WritePlanText(os.Stdout, plan)
	default:
		return fmt.Errorf("unknown output mode %q (want text, json, or console)", mode)
	}
}

func applyPlan(ctx context.Context, groups *hsmgroups.Client, plan domain.Plan) error {
	// Re-derive which nodes were already where they ended up, so ApplyPlan
	// only issues writes for nodes that actually moved.
	originalTarget, err := membershipSet(ctx, groups, plan.TargetGroup)
	if err != nil {
		return err
	}
	originalParent, err := membershipSet(ctx, groups, plan.ParentGroup)
	if err != nil {
		return err
	}

	logging.Info("applying plan", "target", string(plan.TargetGroup), "parent", string(plan.ParentGroup))
	return groups.ApplyPlan(ctx, plan, originalTarget, originalParent)
}

func membershipSet(ctx context.Context, groups *hsmgroups.Client, group domain.GroupID) (map[domain.NodeID]bool, error) {
	members, err := groups.Members(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("list members of %s: %w", group, err)
	}
	set := make(map[domain.NodeID]bool, len(members))
	for _, id := range members {
		set[id] = true
	}
	return set, nil
}
