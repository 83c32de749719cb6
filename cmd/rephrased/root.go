package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/rephrase/config"
	"github.com/hupe1980/rephrase/coordinator"
	"github.com/hupe1980/rephrase/fixture"
	"github.com/hupe1980/rephrase/history"
	"github.com/hupe1980/rephrase/logging"
	"github.com/hupe1980/rephrase/oracle"
)

// app carries what every subcommand needs once the config is loaded.
type app struct {
	configPath string
	envFiles   []string
	logLevel   string

	cfg    *config.Config
	logger *logging.PipelineLogger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "rephrased",
		Short: "Context-aware rewriting of workplace messages",
		Long: `rephrased rewrites short workplace messages so they read clearer and
kinder. It enriches every rewrite with the author's open tasks and calendar.

Run "rephrased serve" to start the JSON API used by the web client.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "rephrase.yaml", "config file (a missing file means defaults)")
	root.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", []string{".env"}, "dotenv files loaded before the environment is read")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newServeCmd(a),
		newRephraseCmd(a),
		newContextCmd(a),
		newHistoryCmd(a),
	)
	return root
}

func (a *app) load() error {
	if err := config.LoadDotEnv(a.envFiles...); err != nil {
		return err
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a.cfg = cfg
	a.logger = cfg.NewLogger()
	return nil
}

// pipeline is the wired coordinator together with its context and history.
type pipeline struct {
	coord    *coordinator.Coordinator
	fixtures *fixture.Store
	history  history.Store
	close    func() error
}

func (a *app) pipeline(ctx context.Context) (*pipeline, error) {
	cfg := a.cfg

	m, err := cfg.NewModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	fixtures, err := cfg.NewFixtures()
	if err != nil {
		return nil, err
	}
	tasks, events := fixtures.Counts()
	a.logger.Debug("fixtures loaded", "tasks", tasks, "events", events)

	hist, closeHistory, err := cfg.NewHistory(ctx)
	if err != nil {
		return nil, err
	}

	timeout, err := cfg.StepTimeout()
	if err != nil {
		_ = closeHistory()
		return nil, err
	}
	precedence, err := cfg.Precedence()
	if err != nil {
		_ = closeHistory()
		return nil, err
	}

	temperature := cfg.Oracle.Temperature
	o := oracle.New(m, func(o *oracle.Options) { o.Logger = a.logger.WithComponent("oracle") })
	coord, err := coordinator.New(o, fixtures, func(o *coordinator.Options) {
		o.Logger = a.logger.WithComponent("coordinator")
		o.StepTimeout = timeout
		o.Precedence = precedence
		o.Temperature = &temperature
		o.HistoryTurns = cfg.Pipeline.HistoryTurns
		o.ScoreConfidence = cfg.Pipeline.ScoreConfidence
		if cfg.Pipeline.Autocomplete {
			o.History = hist
			o.CompletionWords = cfg.Pipeline.CompletionWords
		}
	})
	if err != nil {
		_ = closeHistory()
		return nil, err
	}

	return &pipeline{coord: coord, fixtures: fixtures, history: hist, close: closeHistory}, nil
}
