package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"legalrag/internal/composer"
	"legalrag/internal/config"
	"legalrag/internal/embedding"
	"legalrag/internal/enricher"
	"legalrag/internal/index"
	"legalrag/internal/llm"
	"legalrag/internal/logger"
	"legalrag/internal/segmenter"
	"legalrag/internal/service"
)

var (
	flagConfig  string
	flagDebug   bool
	flagLogFile string
)

var rootCmd = &cobra.Command{
	Use:          "legalrag",
	Short:        "Question answering over the Bolivian Penal Code",
	SilenceUsage: true,
	Long: `legalrag splits the Penal Code into articles, indexes them with an
embedding model and answers questions grounded only in the retrieved articles.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		config.LoadEnv()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML config file (default ./config.yaml or ~/.config/legalrag/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Also write JSON logs to this file")
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.AppConfig, error) {
	if flagConfig != "" {
		return config.Load(flagConfig)
	}
	cfg, _, err := config.LoadDefault()
	return cfg, err
}

// app holds everything a command needs.
type app struct {
	cfg     *config.AppConfig
	logger  *slog.Logger
	service *service.LegalService
	closers []io.Closer
}

func (a *app) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
}

// newApp assembles the pipeline. With quiet set, console logging is
// suppressed so the terminal stays usable by the TUI or the stdio transport.
func newApp(quiet bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w", err)
	}
	a := &app{cfg: cfg}

	debug := cfg.Log.Debug || flagDebug
	var loggers []*slog.Logger
	if !quiet {
		loggers = append(loggers, logger.New(
			logger.WithDebug(debug),
			logger.WithJSON(cfg.Log.JSON),
			logger.WithPretty(cfg.Log.Pretty),
		))
	}
	if flagLogFile != "" {
		f, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		a.closers = append(a.closers, f)
		loggers = append(loggers, logger.New(logger.WithDebug(debug), logger.WithJSON(true), logger.WithWriter(f)))
	}
	switch len(loggers) {
	case 0:
		a.logger = logger.Nop()
	case 1:
		a.logger = loggers[0]
	default:
		a.logger = logger.Multi(loggers...)
	}

	emb, err := embedding.New(cfg.Embedder)
	if err != nil {
		a.Close()
		return nil, err
	}
	completer, err := llm.New(cfg.Completer)
	if err != nil {
		a.Close()
		return nil, err
	}

	seg := segmenter.New(a.logger)
	enr := enricher.New(cfg.Enricher.Template, cfg.Corpus.SourceLabel)
	manager := index.NewManager(index.ManagerConfig{
		Dir:      cfg.Index.Dir,
		Embedder: emb,
		Records:  service.CorpusSource(cfg.Corpus.Path, seg, enr),
		Build: index.BuildOptions{
			Concurrency:       cfg.Index.Concurrency,
			RequestsPerSecond: cfg.Index.RequestsPerSecond,
			BatchSize:         cfg.Index.BatchSize,
			SourceLabel:       enr.SourceLabel(),
		},
		Logger: a.logger,
	})
	comp := composer.New(completer, composer.Config{Temperature: cfg.Completer.Temperature}, a.logger)

	a.service = service.New(service.Deps{
		Manager:  manager,
		Embedder: emb,
		Composer: comp,
		TopK:     cfg.Index.TopK,
		Logger:   a.logger,
	})
	a.logger.Debug("pipeline ready",
		"corpus", cfg.Corpus.Path,
		"index", cfg.Index.Dir,
		"embedder", emb.ModelID(),
		"completer", completer.Name(),
	)
	return a, nil
}
