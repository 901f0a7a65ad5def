// Package llm wraps an OpenAI-compatible chat completion provider behind a
// small service interface so agents never touch the SDK directly.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// CallStats carries token usage and timing for a single LLM call.
type CallStats struct {
	PromptTokens     int   `json:"prompt_tokens"`
	CompletionTokens int   `json:"completion_tokens"`
	TotalTokens      int   `json:"total_tokens"`
	TotalDurationMs  int64 `json:"total_duration_ms"`
}

// Service is the LLM service interface.
type Service interface {
	// Chat performs a chat completion with the service default temperature.
	Chat(ctx context.Context, messages []Message) (string, *CallStats, error)

	// ChatWithTemperature performs a chat completion with an explicit
	// temperature, used by specialists that need deterministic output.
	ChatWithTemperature(ctx context.Context, messages []Message, temperature float32) (string, *CallStats, error)

	// Warmup sends a lightweight ping to establish the provider connection.
	Warmup(ctx context.Context)
}

// Config represents LLM service configuration.
type Config struct {
	Provider    string // openai, deepseek, openrouter, ollama
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 2048
	Temperature float32 // default: 0.2
	Timeout     int     // request timeout in seconds (default: 120)

	// RequestsPerMinute caps outbound provider calls. Zero disables the limiter.
	RequestsPerMinute int
}

type service struct {
	client      *openai.Client
	limiter     *rate.Limiter
	model       string
	provider    string
	maxTokens   int
	temperature float32
	timeout     int
}

// NewService creates a new LLM Service.
func NewService(cfg *Config) (Service, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm: model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = newHTTPClient()

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), cfg.RequestsPerMinute)
	}

	return &service{
		client:      openai.NewClientWithConfig(clientConfig),
		limiter:     limiter,
		model:       cfg.Model,
		provider:    cfg.Provider,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		timeout:     timeout,
	}, nil
}

func (s *service) Chat(ctx context.Context, messages []Message) (string, *CallStats, error) {
	return s.ChatWithTemperature(ctx, messages, s.temperature)
}

func (s *service) ChatWithTemperature(ctx context.Context, messages []Message, temperature float32) (string, *CallStats, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout)*time.Second)
	defer cancel()

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", nil, fmt.Errorf("llm rate limiter: %w", err)
		}
	}

	slog.Debug("llm: chat request",
		"model", s.model,
		"messages_count", len(messages),
		"temperature", temperature)

	startTime := time.Now()

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: temperature,
		Messages:    convertMessages(messages),
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", nil, fmt.Errorf("llm chat failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil, fmt.Errorf("empty response from llm")
	}

	totalDuration := time.Since(startTime)
	stats := &CallStats{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		TotalDurationMs:  totalDuration.Milliseconds(),
	}

	slog.Debug("llm: chat response received",
		"content_length", len(resp.Choices[0].Message.Content),
		"total_tokens", stats.TotalTokens,
		"duration_ms", stats.TotalDurationMs)

	return resp.Choices[0].Message.Content, stats, nil
}

func (s *service) Warmup(ctx context.Context) {
	warmupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	startTime := time.Now()
	req := openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   1,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "Hi"},
		},
	}

	if _, err := s.client.CreateChatCompletion(warmupCtx, req); err != nil {
		slog.Warn("llm: warmup ping failed (first real request may be slower)",
			"provider", s.provider,
			"model", s.model,
			"error", err)
		return
	}

	slog.Info("llm: connection warmed up",
		"provider", s.provider,
		"model", s.model,
		"duration_ms", time.Since(startTime).Milliseconds())
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := m.Role
		switch role {
		case "system", "user", "assistant":
		default:
			role = openai.ChatMessageRoleUser
		}
		out[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}
	return out
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// SystemPrompt creates a system message.
func SystemPrompt(content string) Message {
	return Message{Role: "system", Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}
