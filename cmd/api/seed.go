package main

import (
	"github.com/spf13/cobra"

	"sql_dashboard/internal/config"
	"sql_dashboard/internal/database"
	"sql_dashboard/internal/utils"
)

var seedOpts struct {
	out            string
	seed           int64
	orders         int
	extraCustomers int
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the playground database with sample e-commerce data",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := seedOpts.out
		if out == "" {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			out = cfg.PlaygroundDBPath
		}

		logger, err := utils.NewLogger("console", "info")
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		return database.CreatePlayground(cmd.Context(), out, database.PlaygroundOptions{
			Seed:           seedOpts.seed,
			Orders:         seedOpts.orders,
			ExtraCustomers: seedOpts.extraCustomers,
		}, logger)
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedOpts.out, "out", "", "output path (defaults to APP_PLAYGROUND_DB_PATH)")
	seedCmd.Flags().Int64Var(&seedOpts.seed, "seed", 42, "random seed for generated orders, 0 for random")
	seedCmd.Flags().IntVar(&seedOpts.orders, "orders", 30, "number of orders to generate")
	seedCmd.Flags().IntVar(&seedOpts.extraCustomers, "extra-customers", 0, "number of generated customers besides the fixed ones")
}
