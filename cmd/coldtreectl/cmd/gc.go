package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// gcCmd represents the gc command.
var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "List storage keys unreachable from any recorded root",
	Long: `Gc walks every recorded root's metadata and prints every node
storage key that is not reachable from any of them — the set a caller
may safely delete from node storage. It never deletes anything itself.

Example:
  coldtreectl gc`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tr := treeFromContext(cmd)

		unused, err := tr.UnusedStorageKeys(cmd.Context())
		if err != nil {
			return fmt.Errorf("compute unused storage keys: %w", err)
		}
		if len(unused) == 0 {
			cmd.Println("(no unused storage keys)")
			return nil
		}
		for _, key := range unused {
			cmd.Println(key)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(gcCmd)
}
