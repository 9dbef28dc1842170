package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"simjoin/pkg/logging"
)

var rootCmd = &cobra.Command{
	Use:   "simjoin",
	Short: "Set-similarity joins over CSV tables",
	Long: `simjoin joins two CSV tables on the set similarity of a chosen
string attribute. Rows are tokenized, scored with a set-similarity
measure and emitted when the score passes the threshold.`,
	SilenceUsage: true,
}

func main() {
	defer logging.Close()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newJaccardCmd(), newSetSimCmd())
}
