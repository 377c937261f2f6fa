package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/yourusername/hsm-rebalance/internal/config"
)

func newValidateCommand(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "validate the configuration file without contacting any collaborator",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			fmt.Printf("configuration OK: %d endpoint(s), concurrency=%d, hsm_groups_enabled=%v\n",
				cfg.EndpointCount(), cfg.Concurrency, cfg.HSMGroups.IsEnabled())

			fmt.Println("\nsupported environment variable overrides:")
			help := config.EnvVarHelp()
			names := make([]string, 0, len(help))
			for name := range help {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("  %-32s %s\n", name, help[name])
			}
			return nil
		},
	}
}
