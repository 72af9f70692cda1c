package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// LogLevel is applied to the default logger once the configuration is loaded.
var LogLevel = new(slog.LevelVar)

var rootCmd = &cobra.Command{
	Use:   "chembank",
	Short: "Catalogue of chemical structures, compositions, properties and images",
	Long: `Manages a local catalogue of chemical structures backed by SQLite,
with bulk export/import to a folder of CSV tables and images, optionally
mirrored to an S3 bucket.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("sqlite-path", ".chembank/chembank.db", "SQLite database path")
	rootCmd.PersistentFlags().String("fsm-db-path", ".chembank/fsm", "FSM state directory")
	rootCmd.PersistentFlags().Int("image-batch-size", 10, "Image rows held in memory during export")
	rootCmd.PersistentFlags().Int64("max-image-size", 32*1024*1024, "Max image size in bytes (0 disables)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("s3-bucket", "", "S3 bucket for remote transfers")
	rootCmd.PersistentFlags().String("s3-region", "us-east-1", "S3 region")
	rootCmd.PersistentFlags().String("s3-endpoint", "", "S3-compatible endpoint URL")
	rootCmd.PersistentFlags().Bool("s3-path-style", false, "Use path-style S3 addressing")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write Prometheus metrics to this file after the command")

	for _, name := range []string{
		"sqlite-path", "fsm-db-path", "image-batch-size", "max-image-size", "log-level",
		"s3-bucket", "s3-region", "s3-endpoint", "s3-path-style", "metrics-file",
	} {
		viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}
