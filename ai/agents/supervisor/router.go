package supervisor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/saborlabs/saborai/ai/llm"
	"github.com/saborlabs/saborai/ai/metrics"
	"github.com/saborlabs/saborai/ai/retry"
)

// Router classifies a query into the subset of capabilities that should
// answer it.
type Router struct {
	llm    llm.Service
	policy retry.Policy
}

// NewRouter creates a router with the smaller routing retry budget.
func NewRouter(llmService llm.Service, exporter *metrics.Exporter) *Router {
	policy := retry.RouterPolicy()
	policy.OnRetry = exporter.IncRetry
	return &Router{
		llm:    llmService,
		policy: policy,
	}
}

// Route returns the ordered capability set for the query. A classifier
// output that cannot be parsed degrades to the default capability; only a
// retry-exhausted LLM failure returns an error.
func (r *Router) Route(ctx context.Context, query string) ([]Capability, error) {
	prompt := fmt.Sprintf(routingPrompt, query)

	raw, err := retry.Do(ctx, r.policy, "router.route", func(ctx context.Context) (string, error) {
		response, _, err := r.llm.Chat(ctx, []llm.Message{llm.UserMessage(prompt)})
		return response, err
	})
	if err != nil {
		return nil, fmt.Errorf("routing call failed: %w", err)
	}

	capabilities, parseErr := parseCapabilities(raw)
	if parseErr != nil {
		slog.Warn("router: parse failed, defaulting to recommendation",
			"error", parseErr,
			"raw", raw)
		return []Capability{DefaultCapability}, nil
	}

	slog.Info("router: query classified", "agents", capabilities)
	return capabilities, nil
}

// parseCapabilities parses classifier output into a validated capability set:
// optional code fences stripped, JSON array decoded, unknown identifiers
// dropped, duplicates dropped preserving first-emission order. An empty set
// after filtering is a parse failure so the caller falls back.
func parseCapabilities(raw string) ([]Capability, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var names []string
	if err := json.Unmarshal([]byte(cleaned), &names); err != nil {
		return nil, fmt.Errorf("parse JSON array: %w", err)
	}

	seen := map[Capability]bool{}
	capabilities := make([]Capability, 0, len(names))
	for _, name := range names {
		c := Capability(name)
		if !c.Valid() {
			slog.Debug("router: dropping unknown capability", "name", name)
			continue
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		capabilities = append(capabilities, c)
	}

	if len(capabilities) == 0 {
		return nil, fmt.Errorf("no valid capability in %q", cleaned)
	}
	return capabilities, nil
}
