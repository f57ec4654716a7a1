package main

import (
	"github.com/spf13/cobra"

	"legalrag/internal/api/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the MCP tools over stdio",
	Args:  cobra.NoArgs,
	RunE:  runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	// stdout carries the protocol, so console logging stays off
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := mcp.NewServer(mcp.Config{Service: a.service, Logger: a.logger})
	if err != nil {
		return err
	}
	return s.RunStdio(cmd.Context())
}
