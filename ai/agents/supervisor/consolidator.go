package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/saborlabs/saborai/ai/llm"
	"github.com/saborlabs/saborai/ai/metrics"
)

// Consolidator merges specialist outputs into one final answer with a single
// LLM call. Unlike routing and the specialists, consolidation is not retried:
// by this point the agents have already spent their budgets and the caller is
// waiting on the last hop.
type Consolidator struct {
	llm      llm.Service
	exporter *metrics.Exporter
}

// NewConsolidator creates a consolidator over the given LLM service.
func NewConsolidator(llmService llm.Service, exporter *metrics.Exporter) *Consolidator {
	return &Consolidator{llm: llmService, exporter: exporter}
}

// Consolidate builds the aggregation prompt from the per-agent outputs (in
// the router's capability order) and returns the merged answer.
func (c *Consolidator) Consolidate(ctx context.Context, query string, capabilities []Capability, outputs map[Capability]string) (string, error) {
	startTime := time.Now()

	messages := []llm.Message{
		llm.SystemPrompt(consolidatorSystemPrompt),
		llm.UserMessage(buildConsolidationPrompt(query, capabilities, outputs)),
	}

	response, stats, err := c.llm.Chat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("consolidation failed: %w", err)
	}
	if stats != nil {
		c.exporter.AddTokens(stats.PromptTokens, stats.CompletionTokens)
	}

	slog.Info("consolidator: merged agent outputs",
		"agents", len(capabilities),
		"duration_ms", time.Since(startTime).Milliseconds())

	return response, nil
}

func buildConsolidationPrompt(query string, capabilities []Capability, outputs map[Capability]string) string {
	var sb strings.Builder
	sb.WriteString("Consulta do usuario: ")
	sb.WriteString(query)
	sb.WriteString("\n\n")

	for _, c := range capabilities {
		sb.WriteString("[")
		sb.WriteString(strings.ToUpper(string(c)))
		sb.WriteString(" AGENT]\n")
		sb.WriteString(outputs[c])
		sb.WriteString("\n\n")
	}

	sb.WriteString("Agregue as respostas acima em uma unica resposta final para o usuario.")
	return sb.String()
}
