/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/coldtree/pkg/config"
	"github.com/ssargent/coldtree/pkg/registry"
	"github.com/ssargent/coldtree/pkg/tree"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "coldtreectl",
	Short: "Operate a coldtree content-addressed B-tree index",
	Long: `coldtreectl opens a coldtree index against a configured pair of
byte-storage backends (one for node bytes, one for root snapshots and
node metadata) and lets an operator insert values, iterate a range,
commit a root snapshot, and list storage keys no longer reachable from
any recorded root.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		var cfg *config.Config
		if config.ConfigExists(configPath) {
			loaded, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg = loaded
		} else {
			cfg = config.DefaultConfig()
		}

		nodeStorage, err := config.OpenStorage(cfg.NodeStorage)
		if err != nil {
			return fmt.Errorf("failed to open node storage: %w", err)
		}
		metaStorage, err := config.OpenStorage(cfg.MetadataStorage)
		if err != nil {
			return fmt.Errorf("failed to open metadata storage: %w", err)
		}

		reg := registry.New(metaStorage)
		latest, ok, err := reg.LatestRoot()
		if err != nil {
			return fmt.Errorf("failed to look up latest root: %w", err)
		}

		var tr *tree.Tree
		if ok {
			tr = tree.Open(nodeStorage, metaStorage, latest.StorageKey, tree.WithMaxValues(cfg.MaxValues))
		} else {
			tr = tree.New(nodeStorage, metaStorage, tree.WithMaxValues(cfg.MaxValues))
		}

		ctx := context.WithValue(cmd.Context(), "tree", tr)
		ctx = context.WithValue(ctx, "config", cfg)
		cmd.SetContext(ctx)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(); it only needs to happen
// once to rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", config.GetDefaultConfigPath(), "path to the coldtreectl YAML config file")
}

func treeFromContext(cmd *cobra.Command) *tree.Tree {
	return cmd.Context().Value("tree").(*tree.Tree)
}

func configFromContext(cmd *cobra.Command) *config.Config {
	return cmd.Context().Value("config").(*config.Config)
}
