package step

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rephrase/core"
)

func TestClarity_Run(t *testing.T) {
	o := &fixedOracle{reply: `{"clarity_score": 3, "issues": ["no subject"], "vague_terms": ["Update"], "missing_context": ["which project"], "improved_version": "Could you share the current status of the project?"}`}

	res, err := NewClarity(o).Run(context.Background(), Input{Text: "Update?"})
	require.NoError(t, err)

	assert.Equal(t, core.TierClarity, res.Tier)
	require.NotNil(t, res.ClarityScore)
	assert.Equal(t, 3, *res.ClarityScore)
	assert.Equal(t, []string{"no subject", "which project"}, res.ClarityIssues)
	assert.Equal(t, []string{"Update"}, res.VagueTerms)
	assert.Equal(t, "Could you share the current status of the project?", res.Text)
	assert.True(t, res.Changed)
	assert.False(t, res.NoChange)
}

func TestClarity_NoChange(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{name: "empty improvement", reply: `{"clarity_score": 9, "improved_version": ""}`},
		{name: "same text", reply: `{"clarity_score": 9, "improved_version": "  the build is GREEN "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewClarity(&fixedOracle{reply: tt.reply}).Run(context.Background(), Input{Text: "The build is green"})
			require.NoError(t, err)
			assert.True(t, res.NoChange)
			assert.False(t, res.Changed)
			assert.Equal(t, "The build is green", res.Text)
		})
	}
}

func TestClarity_ScoreClamped(t *testing.T) {
	res, err := NewClarity(&fixedOracle{reply: `{"clarity_score": 14.2, "improved_version": "x"}`}).Run(context.Background(), Input{Text: "y"})
	require.NoError(t, err)
	require.NotNil(t, res.ClarityScore)
	assert.Equal(t, 10, *res.ClarityScore)
}

func TestClarity_Malformed(t *testing.T) {
	_, err := NewClarity(&fixedOracle{reply: "10/10 very clear"}).Run(context.Background(), Input{Text: "y"})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}
