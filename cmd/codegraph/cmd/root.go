// Package cmd implements the codegraph command-line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kestrelworks/codegraph/internal/config"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "codegraph",
	Version: version,
	Short:   "codegraph - extract a code graph from a source repository",
	Long: `codegraph walks a multi-language source repository, extracts functions,
classes, and methods per file, resolves call relationships between them,
and assembles everything into one graph snapshot for visualization.

Extraction runs in parallel and is cached by file content identity, so
re-scanning an unchanged repository is cheap.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default codegraph.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func newLogger() (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if !verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return zcfg.Build()
}
