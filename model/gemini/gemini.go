// Package gemini provides a model.Model backed by Google's Gen AI SDK. It
// targets the Gemini API with an API key, or Vertex AI when a project and
// location are configured.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/hupe1980/rephrase/core"
	"github.com/hupe1980/rephrase/model"
)

// Options configures the Gemini adapter.
type Options struct {
	Model           string
	Temperature     float64
	MaxOutputTokens int32
	APIKey          string
	// Project and Location select the Vertex AI backend when both are set.
	Project  string
	Location string
}

// Model wraps genai.Client behind model.Model.
type Model struct {
	client *genai.Client
	opts   Options
}

// NewModel creates a Gen AI client and wraps it.
func NewModel(ctx context.Context, optFns ...func(o *Options)) (*Model, error) {
	opts := Options{
		Model:           "gemini-2.5-flash",
		Temperature:     0.7,
		MaxOutputTokens: 512,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	cfg := &genai.ClientConfig{APIKey: opts.APIKey, Backend: genai.BackendGeminiAPI}
	if opts.Project != "" && opts.Location != "" {
		cfg = &genai.ClientConfig{Project: opts.Project, Location: opts.Location, Backend: genai.BackendVertexAI}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &Model{client: client, opts: opts}, nil
}

// Generate implements model.Model.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		temp := float32(m.opts.Temperature)
		if req.Temperature != nil {
			temp = float32(*req.Temperature)
		}

		cfg := &genai.GenerateContentConfig{
			Temperature:     &temp,
			MaxOutputTokens: m.opts.MaxOutputTokens,
		}
		if req.Instructions != "" {
			cfg.SystemInstruction = genai.NewContentFromText(req.Instructions, genai.RoleUser)
		}

		res, err := m.client.Models.GenerateContent(ctx, m.opts.Model, buildContents(req.Contents), cfg)
		if err != nil {
			errCh <- fmt.Errorf("gemini generate content: %w", err)
			return
		}

		out <- model.Response{
			Content:      core.NewTextContent("assistant", res.Text()),
			FinishReason: "stop",
		}
	}()

	return out, errCh
}

func buildContents(contents []core.Content) []*genai.Content {
	out := make([]*genai.Content, 0, len(contents))
	for _, c := range contents {
		text := c.Text()
		if text == "" {
			continue
		}
		var role genai.Role = genai.RoleUser
		if c.Role == "assistant" {
			role = genai.RoleModel
		}
		out = append(out, genai.NewContentFromText(text, role))
	}
	return out
}

// Info returns metadata describing this Gemini model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "gemini"}
}
