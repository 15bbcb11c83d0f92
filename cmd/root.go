package cmd

import (
	"fmt"
	"os"

	"record-manager/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "record-manager",
	Short: "Record Manager Service",
	Long: `Record Manager serves an ordered, paged view over a large dataset.
Records live in a SQL table or a JSON lines object in S3 storage and are
materialized on demand, with a bounded number kept in memory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console output with ISO8601 timestamps for CLI users
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
