package cmd

import (
	"github.com/spf13/cobra"
)

// rootsCmd represents the roots command.
var rootsCmd = &cobra.Command{
	Use:   "roots",
	Short: "List every recorded root snapshot",
	Long: `Roots lists every root snapshot committed so far, in no
particular order, with its id, storage key, and commit time.

Example:
  coldtreectl roots`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tr := treeFromContext(cmd)

		roots, err := tr.Roots()
		if err != nil {
			return err
		}
		if len(roots) == 0 {
			cmd.Println("(no roots stored yet)")
			return nil
		}
		for _, r := range roots {
			cmd.Printf("%s  %s  %d  %v\n", r.RootID, r.StorageKey, r.StoredAtNanos, r.Metadata)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rootsCmd)
}
