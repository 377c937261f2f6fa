package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/hsm-rebalance/internal/aggregate"
	"github.com/yourusername/hsm-rebalance/internal/domain"
	"github.com/yourusername/hsm-rebalance/internal/fetch"
	"github.com/yourusername/hsm-rebalance/internal/pattern"
)

func newPatternCommand(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pattern",
		Short: "pattern utilities",
	}
	cmd.AddCommand(newPatternDumpCommand(root))
	return cmd
}

func newPatternDumpCommand(root *rootFlags) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "dump <group>",
		Short: "print a group's current component-count totals in pattern syntax",
		Long: "dump is the inverse of the plan pattern argument: it fetches a group's " +
			"current membership and hardware inventory and prints its totals back in the " +
			"same colon-delimited syntax (\"group:component:count...\"). It is read-only.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			groups, inventories := buildCollaborators(cfg)
			groupID := domain.GroupID(args[0])

			members, err := groups.Members(ctx, groupID)
			if err != nil {
				return fmt.Errorf("list members of %s: %w", groupID, err)
			}

			fetcher := fetch.New(inventories, concurrency)
			inv, err := fetcher.Gather(ctx, members, nil)
			if err != nil {
				return err
			}

			totals := aggregate.New().GroupTotals(inv)
			counts := make(domain.DesiredCounts, len(totals))
			for k, v := range totals {
				counts[k] = v
			}

			fmt.Println(pattern.Format(groupID, counts))
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "max concurrent inventory fetches (0 = default)")
	return cmd
}
