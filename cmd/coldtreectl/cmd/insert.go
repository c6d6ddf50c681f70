package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var noCommit bool

// insertCmd represents the insert command.
var insertCmd = &cobra.Command{
	Use:   "insert <value...>",
	Short: "Insert one or more values into the tree",
	Long: `Insert adds each argument to the tree, parsing it as an integer
when possible and as a string otherwise, then unloads the whole tree to
storage and commits a new root snapshot so the next invocation of
coldtreectl picks the values back up.

Example:
  coldtreectl insert 7 3 19`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tr := treeFromContext(cmd)

		for _, arg := range args {
			if err := tr.Add(parseValue(arg)); err != nil {
				return fmt.Errorf("insert %q: %w", arg, err)
			}
		}

		if noCommit {
			cfg := configFromContext(cmd)
			if cfg.ResidentCap > 0 {
				if err := tr.UnloadExcess(cfg.ResidentCap); err != nil {
					return fmt.Errorf("unload excess: %w", err)
				}
			}
			cmd.Printf("inserted %d value(s)\n", len(args))
			return nil
		}

		if err := tr.UnloadTree(); err != nil {
			return fmt.Errorf("unload tree: %w", err)
		}
		snap, err := tr.StoreRoot(nil)
		if err != nil {
			return fmt.Errorf("store root: %w", err)
		}
		cmd.Printf("inserted %d value(s), new root %s\n", len(args), snap.StorageKey)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(insertCmd)
	insertCmd.Flags().BoolVar(&noCommit, "no-commit", false, "skip unloading and committing a root snapshot after inserting")
}
