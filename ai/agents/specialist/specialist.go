// Package specialist implements the three capability agents (nutrition,
// recommendation, quality). Each one retrieves menu passages and answers with
// a single retrieval-augmented generation call.
package specialist

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/saborlabs/saborai/ai/llm"
	"github.com/saborlabs/saborai/ai/metrics"
	"github.com/saborlabs/saborai/ai/rag"
	"github.com/saborlabs/saborai/ai/retry"
)

// Specialist answers queries for one capability using retrieved menu context.
// Instances are stateless across requests and safe for concurrent use.
type Specialist struct {
	name        string
	instruction string
	temperature float32
	llm         llm.Service
	retriever   rag.Retriever
	policy      retry.Policy
}

// New creates a specialist with an explicit role configuration.
func New(name, instruction string, temperature float32, llmService llm.Service, retriever rag.Retriever, exporter *metrics.Exporter) *Specialist {
	policy := retry.DefaultPolicy()
	policy.OnRetry = exporter.IncRetry
	return &Specialist{
		name:        name,
		instruction: instruction,
		temperature: temperature,
		llm:         llmService,
		retriever:   retriever,
		policy:      policy,
	}
}

// NewNutrition creates the dietary/nutrition specialist. Temperature 0 keeps
// allergen answers deterministic.
func NewNutrition(llmService llm.Service, retriever rag.Retriever, exporter *metrics.Exporter) *Specialist {
	return New("nutrition", nutritionInstruction, 0, llmService, retriever, exporter)
}

// NewRecommendation creates the combo/suggestion specialist.
func NewRecommendation(llmService llm.Service, retriever rag.Retriever, exporter *metrics.Exporter) *Specialist {
	return New("recommendation", recommendationInstruction, 0.2, llmService, retriever, exporter)
}

// NewQuality creates the menu-copy critique specialist.
func NewQuality(llmService llm.Service, retriever rag.Retriever, exporter *metrics.Exporter) *Specialist {
	return New("quality", qualityInstruction, 0.1, llmService, retriever, exporter)
}

// Name returns the capability name this specialist serves.
func (s *Specialist) Name() string {
	return s.name
}

// Answer retrieves passages for the query and generates the specialist
// response. Retrieval or generation failures propagate as errors; the
// specialist never synthesizes a partial answer.
func (s *Specialist) Answer(ctx context.Context, query, menuName string) (string, error) {
	startTime := time.Now()

	answer, err := retry.Do(ctx, s.policy, s.name+".answer", func(ctx context.Context) (string, error) {
		passages, err := s.retriever.Retrieve(ctx, query, menuName)
		if err != nil {
			return "", fmt.Errorf("retrieve context: %w", err)
		}

		messages := []llm.Message{
			llm.SystemPrompt(s.instruction),
			llm.UserMessage(buildUserPrompt(passages, query)),
		}

		response, stats, err := s.llm.ChatWithTemperature(ctx, messages, s.temperature)
		if err != nil {
			return "", err
		}
		if stats != nil {
			slog.Debug("specialist: answered",
				"agent", s.name,
				"passages", len(passages),
				"total_tokens", stats.TotalTokens)
		}
		return response, nil
	})
	if err != nil {
		return "", fmt.Errorf("agent %s: %w", s.name, err)
	}

	slog.Info("specialist: completed",
		"agent", s.name,
		"duration_ms", time.Since(startTime).Milliseconds())

	return answer, nil
}

func buildUserPrompt(passages []rag.Passage, query string) string {
	var sb strings.Builder
	sb.WriteString("Context:\n")
	if len(passages) == 0 {
		sb.WriteString("(no menu content available)\n")
	}
	for i, p := range passages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(p.Content)
	}
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(query)
	sb.WriteString("\n\nAnswer:")
	return sb.String()
}
