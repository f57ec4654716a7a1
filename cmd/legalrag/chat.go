package main

import (
	"github.com/spf13/cobra"

	"legalrag/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive terminal chat",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVar(&flagAskArea, "area", "", "Optional topic hint passed to the model")
	chatCmd.Flags().StringVar(&flagAskRegion, "region", "", "Optional region hint passed to the model")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	// build or load before entering the alt screen
	if _, err := a.service.Open(cmd.Context()); err != nil {
		return err
	}
	return tui.Run(a.service, askFields())
}
