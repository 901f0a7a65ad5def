package supervisor

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saborlabs/saborai/ai/llm"
	"github.com/saborlabs/saborai/ai/metrics"
)

// Supervisor is the orchestration entry point: route, execute, consolidate.
// A routing failure or a consolidation failure fails the whole query; agent
// failures during execution never do.
type Supervisor struct {
	router       *Router
	executor     *Executor
	consolidator *Consolidator
	config       *Config
	exporter     *metrics.Exporter
}

// New creates a supervisor over the given LLM service and agent table.
func New(llmService llm.Service, agents map[Capability]Agent, exporter *metrics.Exporter, opts ...Option) *Supervisor {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}

	return &Supervisor{
		router:       NewRouter(llmService, exporter),
		executor:     NewExecutor(agents, config.MaxParallelAgents, exporter),
		consolidator: NewConsolidator(llmService, exporter),
		config:       config,
		exporter:     exporter,
	}
}

// Run orchestrates one query with sequential agent execution.
func (s *Supervisor) Run(ctx context.Context, query, menuName string) (*Result, error) {
	return s.run(ctx, query, menuName, false, nil)
}

// RunParallel orchestrates one query with concurrent agent execution.
func (s *Supervisor) RunParallel(ctx context.Context, query, menuName string) (*Result, error) {
	return s.run(ctx, query, menuName, true, nil)
}

// Stream orchestrates one query with concurrent agent execution, delivering
// progress events to the callback as each stage completes. The final Result
// is both returned and delivered as the done event payload.
func (s *Supervisor) Stream(ctx context.Context, query, menuName string, callback EventCallback) (*Result, error) {
	return s.run(ctx, query, menuName, true, callback)
}

func (s *Supervisor) run(ctx context.Context, query, menuName string, parallel bool, callback EventCallback) (*Result, error) {
	traceID := uuid.NewString()
	startTime := time.Now()
	mode := "sequential"
	if parallel {
		mode = "parallel"
	}

	dispatcher := newEventDispatcher(traceID, callback)
	defer dispatcher.Close()

	slog.Info("supervisor: query received",
		"trace_id", traceID,
		"mode", mode,
		"menu", menuName)

	routeCtx := ctx
	if s.config.RouterTimeout > 0 {
		var cancelRoute context.CancelFunc
		routeCtx, cancelRoute = context.WithTimeout(ctx, s.config.RouterTimeout)
		defer cancelRoute()
	}
	capabilities, err := s.router.Route(routeCtx, query)
	if err != nil {
		dispatcher.Send(EventError, err.Error())
		s.exporter.ObserveQuery(mode, "error", time.Since(startTime).Seconds())
		return nil, err
	}
	dispatcher.Send(EventRouting, marshalJSON(capabilities))

	var outputs map[Capability]string
	if parallel {
		outputs = s.executor.ExecuteParallel(ctx, capabilities, query, menuName, func(completion AgentCompletion) {
			dispatcher.Send(EventAgent, marshalJSON(AgentEvent{
				Agent:  completion.Agent,
				Output: completion.Output,
				Failed: completion.Failed,
			}))
		})
	} else {
		outputs = s.executor.ExecuteSequential(ctx, capabilities, query, menuName)
	}

	response, err := s.consolidator.Consolidate(ctx, query, capabilities, outputs)
	if err != nil {
		dispatcher.Send(EventError, err.Error())
		s.exporter.ObserveQuery(mode, "error", time.Since(startTime).Seconds())
		return nil, err
	}
	dispatcher.Send(EventResponse, response)

	elapsed := time.Since(startTime)
	result := &Result{
		Query:        query,
		MenuName:     menuName,
		AgentsUsed:   capabilities,
		AgentOutputs: outputs,
		Response:     response,
		LatencyMs:    float64(elapsed.Microseconds()) / 1000.0,
	}
	dispatcher.Send(EventDone, marshalJSON(result))
	s.exporter.ObserveQuery(mode, "ok", elapsed.Seconds())

	slog.Info("supervisor: query completed",
		"trace_id", traceID,
		"agents", capabilities,
		"latency_ms", result.LatencyMs)

	return result, nil
}

func marshalJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
