package supervisor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saborlabs/saborai/ai/metrics"
)

func TestParseCapabilities(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []Capability
		wantErr bool
	}{
		{
			name: "plain array",
			raw:  `["nutrition"]`,
			want: []Capability{CapabilityNutrition},
		},
		{
			name: "multiple preserving order",
			raw:  `["quality", "nutrition"]`,
			want: []Capability{CapabilityQuality, CapabilityNutrition},
		},
		{
			name: "json code fence",
			raw:  "```json\n[\"recommendation\"]\n```",
			want: []Capability{CapabilityRecommendation},
		},
		{
			name: "bare code fence",
			raw:  "```\n[\"nutrition\", \"quality\"]\n```",
			want: []Capability{CapabilityNutrition, CapabilityQuality},
		},
		{
			name: "surrounding whitespace",
			raw:  "  [\"nutrition\"]  \n",
			want: []Capability{CapabilityNutrition},
		},
		{
			name: "unknown names filtered",
			raw:  `["nutrition", "pricing", "quality"]`,
			want: []Capability{CapabilityNutrition, CapabilityQuality},
		},
		{
			name: "duplicates dropped",
			raw:  `["nutrition", "nutrition", "quality"]`,
			want: []Capability{CapabilityNutrition, CapabilityQuality},
		},
		{
			name:    "all unknown",
			raw:     `["pricing", "delivery"]`,
			wantErr: true,
		},
		{
			name:    "empty array",
			raw:     `[]`,
			wantErr: true,
		},
		{
			name:    "not json",
			raw:     "I think the nutrition agent should handle this.",
			wantErr: true,
		},
		{
			name:    "json object instead of array",
			raw:     `{"agents": ["nutrition"]}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCapabilities(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRouteFallsBackOnUnparseableOutput(t *testing.T) {
	fake := &scriptedLLM{responses: []string{"the recommendation agent, probably"}}
	router := NewRouter(fake, nil)

	capabilities, err := router.Route(context.Background(), "Monte um combo")
	require.NoError(t, err)
	assert.Equal(t, []Capability{DefaultCapability}, capabilities)
}

func TestRouteReturnsErrorOnPermanentLLMFailure(t *testing.T) {
	fake := &scriptedLLM{errs: []error{errors.New("invalid api key")}}
	router := NewRouter(fake, nil)

	_, err := router.Route(context.Background(), "Monte um combo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "routing call failed")
}

func TestRouteIncludesQueryInPrompt(t *testing.T) {
	fake := &scriptedLLM{responses: []string{`["quality"]`}}
	router := NewRouter(fake, nil)

	_, err := router.Route(context.Background(), "Avalie a qualidade do cardápio")
	require.NoError(t, err)

	require.Len(t, fake.prompts, 1)
	assert.Contains(t, fake.prompts[0], "Avalie a qualidade do cardápio")
}

func TestNewRouterBindsRetryCounter(t *testing.T) {
	router := NewRouter(&scriptedLLM{}, metrics.NewExporter(metrics.DefaultConfig()))
	require.NotNil(t, router.policy.OnRetry)

	// A nil exporter still yields a callable no-op hook.
	router = NewRouter(&scriptedLLM{}, nil)
	require.NotNil(t, router.policy.OnRetry)
	assert.NotPanics(t, router.policy.OnRetry)
}

func TestCapabilityValid(t *testing.T) {
	for _, c := range AllCapabilities {
		assert.True(t, c.Valid())
	}
	assert.False(t, Capability("pricing").Valid())
	assert.False(t, Capability("").Valid())
}
