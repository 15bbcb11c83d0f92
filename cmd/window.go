package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"record-manager/core/config"
	"record-manager/core/logger"
	"record-manager/feature/records"

	"github.com/spf13/cobra"
)

// windowCmd represents the window command
var windowCmd = &cobra.Command{
	Use:   "window",
	Short: "Print a window of records as JSON",
	Long:  `Materializes [start, start+count) from the configured data service and prints it with the collection's paging state.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		start, _ := cmd.Flags().GetInt("start")
		count, _ := cmd.Flags().GetInt("count")

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
		svc := records.NewService(b.records, b.source, logg)
		if err := svc.Load(ctx); err != nil {
			return err
		}

		w, err := svc.Window(ctx, start, count)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(w)
	},
}

func init() {
	windowCmd.Flags().Int("start", 0, "First index of the window")
	windowCmd.Flags().Int("count", 20, "Number of records in the window")
	RootCmd.AddCommand(windowCmd)
}
