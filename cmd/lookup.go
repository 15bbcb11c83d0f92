package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"record-manager/core/config"
	"record-manager/core/logger"

	"github.com/spf13/cobra"
)

// lookupCmd represents the lookup command
var lookupCmd = &cobra.Command{
	Use:   "lookup <id>",
	Short: "Fetch a single record by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer logg.Sync()

		b, err := buildBackend(ctx, cfg, logg)
		if err != nil {
			return err
		}

		rec, err := b.records.FetchByID(ctx, args[0])
		if err != nil {
			return fmt.Errorf("lookup %s: %w", args[0], err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

func init() {
	RootCmd.AddCommand(lookupCmd)
}
