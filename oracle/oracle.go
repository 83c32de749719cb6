// Package oracle exposes the narrow capability every rewrite step depends on:
// given a prompt, return generated text or fail. Production code adapts a
// model.Model; tests substitute a Func.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/rephrase/core"
	"github.com/hupe1980/rephrase/logging"
	"github.com/hupe1980/rephrase/model"
)

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("oracle returned empty response")

// Prompt is a single templated request to the oracle.
type Prompt struct {
	System string
	// User is the fully rendered request. Steps that look at the
	// conversation render it into this text.
	User        string
	Temperature *float64
}

// Oracle generates text for a prompt.
type Oracle interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as an Oracle.
type Func func(ctx context.Context, p Prompt) (string, error)

// Complete implements Oracle.
func (f Func) Complete(ctx context.Context, p Prompt) (string, error) { return f(ctx, p) }

// Options configure a ModelOracle.
type Options struct {
	Logger logging.Logger
}

// ModelOracle adapts a model.Model to the Oracle interface.
type ModelOracle struct {
	model  model.Model
	logger logging.Logger
}

// New wraps m.
func New(m model.Model, optFns ...func(o *Options)) *ModelOracle {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ModelOracle{model: m, logger: opts.Logger}
}

// Info returns the wrapped model's metadata.
func (o *ModelOracle) Info() model.Info { return o.model.Info() }

type oracleCallLogger interface {
	LogOracleCall(provider, model string, dur time.Duration, success bool, err error)
}

// Complete sends the prompt and drains the model's channels into one string.
func (o *ModelOracle) Complete(ctx context.Context, p Prompt) (string, error) {
	start := time.Now()
	text, err := o.complete(ctx, p)

	info := o.model.Info()
	if l, ok := o.logger.(oracleCallLogger); ok {
		l.LogOracleCall(info.Provider, info.Name, time.Since(start), err == nil, err)
	} else if err != nil {
		o.logger.Warn("oracle call failed", "provider", info.Provider, "model", info.Name, "error", err)
	}
	return text, err
}

func (o *ModelOracle) complete(ctx context.Context, p Prompt) (string, error) {
	respCh, errCh := o.model.Generate(ctx, model.Request{
		Instructions: p.System,
		Contents:     []core.Content{core.NewTextContent("user", p.User)},
		Temperature:  p.Temperature,
	})

	var (
		final   string
		partial strings.Builder
	)
	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if r.Partial {
				partial.WriteString(r.Content.Text())
				continue
			}
			final += r.Content.Text()
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return "", fmt.Errorf("oracle: %w", err)
			}
		}
	}

	if final == "" {
		final = partial.String()
	}
	if strings.TrimSpace(final) == "" {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(final), nil
}
