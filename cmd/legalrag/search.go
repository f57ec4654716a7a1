package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"legalrag/internal/summarizer"
)

var flagSearchK int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Show the articles most relevant to a query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&flagSearchK, "k", "k", 0, "Number of articles to show (default from config)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	query := strings.Join(args, " ")
	res, err := a.service.Search(cmd.Context(), query, flagSearchK)
	if err != nil {
		return err
	}
	if len(res) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No articles found.")
		return nil
	}

	gist := summarizer.New()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tART.\tSUMMARY")
	for _, r := range res {
		fmt.Fprintf(w, "%.3f\t%s\t%s\n", r.Score, r.Record.Number, gist.Summarize(r.Record.Body, 1))
	}
	return w.Flush()
}
