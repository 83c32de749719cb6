package config

import (
	"context"
	"fmt"
	"os"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/rephrase/fixture"
	"github.com/hupe1980/rephrase/history"
	"github.com/hupe1980/rephrase/history/redis"
	"github.com/hupe1980/rephrase/history/sqlite"
	"github.com/hupe1980/rephrase/logging"
	"github.com/hupe1980/rephrase/model"
	"github.com/hupe1980/rephrase/model/anthropic"
	"github.com/hupe1980/rephrase/model/gemini"
	"github.com/hupe1980/rephrase/model/openai"
)

// NewModel builds the configured oracle provider.
func (c *Config) NewModel(ctx context.Context) (model.Model, error) {
	o := c.Oracle
	switch o.Provider {
	case "openai":
		return openai.NewModel(func(opts *openai.Options) {
			opts.APIKey = o.APIKey
			opts.BaseURL = o.BaseURL
			opts.Temperature = o.Temperature
			if o.Model != "" {
				opts.Model = o.Model
			}
			if o.MaxTokens > 0 {
				opts.MaxCompletionTokens = o.MaxTokens
			}
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(opts *anthropic.Options) {
			opts.APIKey = o.APIKey
			opts.BaseURL = o.BaseURL
			opts.Temperature = o.Temperature
			if o.Model != "" {
				opts.Model = anthropicsdk.Model(o.Model)
			}
			if o.MaxTokens > 0 {
				opts.MaxTokens = o.MaxTokens
			}
		}), nil
	case "gemini":
		return gemini.NewModel(ctx, func(opts *gemini.Options) {
			opts.APIKey = o.APIKey
			opts.Project = o.Project
			opts.Location = o.Location
			opts.Temperature = o.Temperature
			if o.Model != "" {
				opts.Model = o.Model
			}
			if o.MaxTokens > 0 {
				opts.MaxOutputTokens = int32(o.MaxTokens)
			}
		})
	case "mock":
		return NewOfflineModel(), nil
	default:
		return nil, fmt.Errorf("invalid oracle provider: %s", o.Provider)
	}
}

// NewHistory opens the configured history store. The returned close function
// releases backend resources and is never nil.
func (c *Config) NewHistory(ctx context.Context) (history.Store, func() error, error) {
	noop := func() error { return nil }

	switch c.History.Backend {
	case "memory":
		return history.NewInMemoryStore(), noop, nil
	case "json":
		s, err := history.NewJSONFileStore(c.History.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case "sqlite":
		s, err := sqlite.Open(c.History.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "redis":
		s, err := redis.Dial(ctx, c.History.RedisURL, func(o *redis.Options) {
			if c.History.RedisKey != "" {
				o.Key = c.History.RedisKey
			}
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("invalid history backend: %s", c.History.Backend)
	}
}

// NewFixtures loads the task and calendar fixtures.
func (c *Config) NewFixtures() (*fixture.Store, error) {
	return fixture.Load(c.Fixtures.Tasks, c.Fixtures.Events)
}

// NewLogger builds the structured logger.
func (c *Config) NewLogger() *logging.PipelineLogger {
	cfg := logging.DefaultLoggerConfig()
	cfg.Level = logging.ParseLevel(c.Logging.Level)
	if c.Logging.Format != "" {
		cfg.Format = c.Logging.Format
	}
	cfg.AddSource = c.Logging.AddSource
	cfg.Output = os.Stderr
	cfg.Component = "rephrase"
	return logging.NewLogger(cfg)
}
