package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"legalrag/internal/domain"
	"legalrag/internal/retriever"
)

var (
	flagAskArea   string
	flagAskRegion string
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question grounded in the retrieved articles",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVar(&flagAskArea, "area", "", "Optional topic hint passed to the model")
	askCmd.Flags().StringVar(&flagAskRegion, "region", "", "Optional region hint passed to the model")
	rootCmd.AddCommand(askCmd)
}

func askFields() map[string]string {
	fields := map[string]string{}
	if flagAskArea != "" {
		fields["area"] = flagAskArea
	}
	if flagAskRegion != "" {
		fields["region"] = flagAskRegion
	}
	return fields
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	ans, err := a.service.Ask(cmd.Context(), strings.Join(args, " "), askFields())
	if err != nil {
		if len(ans.Sources) > 0 {
			fmt.Fprintln(out, "Retrieved articles:")
			fmt.Fprintln(out, retriever.FormatContext(toResult(ans.Sources)))
		}
		if domain.Retryable(err) {
			return fmt.Errorf("%w (retry later)", err)
		}
		return err
	}

	fmt.Fprintln(out, ans.Text)
	if len(ans.Sources) > 0 {
		nums := make([]string, 0, len(ans.Sources))
		for _, s := range ans.Sources {
			nums = append(nums, "Art. "+s.Number)
		}
		fmt.Fprintf(out, "\nSources: %s\n", strings.Join(nums, ", "))
	}
	return nil
}

func toResult(records []domain.ArticleRecord) domain.RetrievalResult {
	res := make(domain.RetrievalResult, 0, len(records))
	for _, r := range records {
		res = append(res, domain.ScoredArticle{Record: r})
	}
	return res
}
