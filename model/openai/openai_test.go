package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/rephrase/core"
	"github.com/hupe1980/rephrase/model"
)

var _ model.Model = (*Model)(nil)

func TestBuildMessages_SystemFirst(t *testing.T) {
	req := model.Request{
		Instructions: "rewrite politely",
		Contents: []core.Content{
			core.NewTextContent("assistant", "earlier reply"),
			core.NewTextContent("user", "Update?"),
			core.NewTextContent("user", ""),
		},
	}

	msgs := buildMessages(req)

	// empty user text is dropped
	assert.Len(t, msgs, 3)
	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfAssistant)
	assert.NotNil(t, msgs[2].OfUser)
}

func TestBuildParams_TemperatureOverride(t *testing.T) {
	m := NewModel(func(o *Options) {
		o.APIKey = "test"
		o.Model = "gpt-4o-mini"
		o.Temperature = 0.7
	})
	override := 0.1

	params := m.buildParams(model.Request{Temperature: &override}, nil)

	assert.Equal(t, "gpt-4o-mini", params.Model)
	assert.InDelta(t, 0.1, params.Temperature.Value, 1e-9)
	assert.Equal(t, "openai", m.Info().Provider)
}
