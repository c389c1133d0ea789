package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kestrelworks/codegraph/internal/config"
)

const starterConfig = `# codegraph configuration
workers: 4

cache:
  enabled: true
  path: .codegraph/cache.db

graph:
  # Keep unresolved calls as edges to a synthetic external node.
  external_edges: false

# Skip files larger than this many bytes (0 means no limit).
max_file_size: 0

# Restrict scanning to specific languages (empty means all supported).
languages: []

exclude:
  dirs: []
  globs:
    - "**/*_test.go"
    - "**/*.min.js"
`

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter codegraph.yaml in the current directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(config.DefaultFile); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", config.DefaultFile)
		}
		if err := os.WriteFile(config.DefaultFile, []byte(starterConfig), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", config.DefaultFile, err)
		}
		fmt.Printf("Wrote %s\n", config.DefaultFile)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}
