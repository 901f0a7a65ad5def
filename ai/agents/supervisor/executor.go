package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/saborlabs/saborai/ai/metrics"
)

// AgentCompletion is delivered once per selected capability, in completion
// order, when the parallel executor is given a completion callback.
type AgentCompletion struct {
	Agent  Capability
	Output string
	Failed bool
}

// Executor dispatches a query to the selected specialists. Failures never
// abort the batch: a failed capability gets a formatted error string in its
// result slot and the siblings keep running.
type Executor struct {
	agents      map[Capability]Agent
	maxParallel int
	exporter    *metrics.Exporter
}

// NewExecutor creates an executor over the given agent table.
func NewExecutor(agents map[Capability]Agent, maxParallel int, exporter *metrics.Exporter) *Executor {
	if maxParallel <= 0 {
		maxParallel = 3
	}
	return &Executor{
		agents:      agents,
		maxParallel: maxParallel,
		exporter:    exporter,
	}
}

// ExecuteSequential invokes the selected agents one after another in set
// order. The returned map always has exactly one entry per capability.
func (e *Executor) ExecuteSequential(ctx context.Context, capabilities []Capability, query, menuName string) map[Capability]string {
	outputs := make(map[Capability]string, len(capabilities))
	for _, c := range capabilities {
		completion := e.invoke(ctx, c, query, menuName)
		outputs[c] = completion.Output
	}
	return outputs
}

// ExecuteParallel invokes the selected agents concurrently, bounded by the
// parallelism limit. onComplete (optional) is called once per agent in
// completion order, which is non-deterministic across runs. The returned map
// always has exactly one entry per capability.
func (e *Executor) ExecuteParallel(ctx context.Context, capabilities []Capability, query, menuName string, onComplete func(AgentCompletion)) map[Capability]string {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, e.maxParallel)
	)
	outputs := make(map[Capability]string, len(capabilities))

	for _, c := range capabilities {
		wg.Add(1)
		go func(c Capability) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			completion := e.invoke(ctx, c, query, menuName)

			mu.Lock()
			outputs[c] = completion.Output
			if onComplete != nil {
				// Called under the lock so completions are delivered one at
				// a time.
				onComplete(completion)
			}
			mu.Unlock()
		}(c)
	}

	wg.Wait()
	return outputs
}

// invoke runs one agent, absorbing its failure into the result value.
func (e *Executor) invoke(ctx context.Context, c Capability, query, menuName string) AgentCompletion {
	agent, ok := e.agents[c]
	if !ok {
		// Unknown capabilities are filtered by the router; reaching here
		// means the agent table is misconfigured.
		slog.Error("executor: no agent registered", "agent", c)
		return AgentCompletion{
			Agent:  c,
			Output: fmt.Sprintf("[Erro no agente %s: agente nao registrado]", c),
			Failed: true,
		}
	}

	startTime := time.Now()
	output, err := agent.Answer(ctx, query, menuName)
	if err != nil {
		slog.Error("executor: agent failed",
			"agent", c,
			"error", err,
			"duration_ms", time.Since(startTime).Milliseconds())
		e.exporter.ObserveAgent(string(c), "error")
		return AgentCompletion{
			Agent:  c,
			Output: fmt.Sprintf("[Erro no agente %s: %v]", c, err),
			Failed: true,
		}
	}

	slog.Debug("executor: agent completed",
		"agent", c,
		"duration_ms", time.Since(startTime).Milliseconds())
	e.exporter.ObserveAgent(string(c), "ok")
	return AgentCompletion{Agent: c, Output: output}
}
