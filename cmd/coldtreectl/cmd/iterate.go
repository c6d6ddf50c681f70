package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// iterateCmd represents the iterate command.
var iterateCmd = &cobra.Command{
	Use:   "iterate <start>",
	Short: "Print every value from start (inclusive) onward",
	Long: `Iterate walks the tree's inclusive subsequence starting at start,
printing one value per line. start is parsed as an integer when possible
and as a string otherwise.

Example:
  coldtreectl iterate 0`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tr := treeFromContext(cmd)
		start := parseValue(args[0])

		it := tr.InclusiveSubsequence(start)
		count := 0
		for {
			value, ok, err := it.Next()
			if err != nil {
				return fmt.Errorf("iterate: %w", err)
			}
			if !ok {
				break
			}
			cmd.Printf("%v\n", value)
			count++
		}
		if count == 0 {
			cmd.Println("(empty)")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(iterateCmd)
}
