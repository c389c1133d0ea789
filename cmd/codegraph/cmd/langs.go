package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kestrelworks/codegraph/internal/lang"
)

var langsCmd = &cobra.Command{
	Use:   "langs",
	Short: "List supported languages and their file extensions",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range lang.Names() {
			l := lang.Languages[name]
			fmt.Printf("%-12s %s\n", name, strings.Join(l.Extensions, " "))
		}
	},
}

func init() {
	rootCmd.AddCommand(langsCmd)
}
