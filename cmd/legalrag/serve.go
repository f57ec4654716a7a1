package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"legalrag/internal/api"
	"legalrag/internal/api/mcp"
)

var flagServeListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API with the MCP endpoint at /mcp",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeListen, "listen", "", "Listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := a.service.Open(ctx); err != nil {
		return err
	}

	mcpServer, err := mcp.NewServer(mcp.Config{Service: a.service, Logger: a.logger})
	if err != nil {
		return err
	}
	listen := a.cfg.Server.Listen
	if flagServeListen != "" {
		listen = flagServeListen
	}
	srv, err := api.NewServer(api.Config{ListenAddr: listen, MCPHandler: mcpServer.Handler()}, a.service, a.logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.logger.Info("shutting down")
		if err := srv.Shutdown(); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}
