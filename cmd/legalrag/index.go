package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagIndexForce bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Load the article index, building it from the corpus if needed",
	Args:  cobra.NoArgs,
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagIndexForce, "force", false, "Rebuild the index even if a valid one exists")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	open := a.service.Open
	if flagIndexForce {
		open = a.service.Rebuild
	}
	ix, err := open(cmd.Context())
	if err != nil {
		return err
	}
	m := ix.Manifest()
	if ix.Len() == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No articles indexed (corpus %s missing or empty).\n", a.cfg.Corpus.Path)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Index %s: %d articles, model %s, dim %d, built %s\n",
		a.cfg.Index.Dir, m.Count, m.ModelID, m.Dim, m.CreatedAt)
	return nil
}
