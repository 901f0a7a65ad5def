package supervisor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteSequentialOneEntryPerCapability(t *testing.T) {
	e := NewExecutor(stubAgents(), 3, nil)

	outputs := e.ExecuteSequential(context.Background(), AllCapabilities, "q", "")
	require.Len(t, outputs, 3)
	assert.Equal(t, "vegan dishes: salad", outputs[CapabilityNutrition])
	assert.Equal(t, "combo under R$60", outputs[CapabilityRecommendation])
	assert.Equal(t, "descriptions rated 7/10", outputs[CapabilityQuality])
}

func TestExecuteParallelOneEntryPerCapability(t *testing.T) {
	e := NewExecutor(stubAgents(), 3, nil)

	var completions int32
	outputs := e.ExecuteParallel(context.Background(), AllCapabilities, "q", "", func(AgentCompletion) {
		atomic.AddInt32(&completions, 1)
	})

	require.Len(t, outputs, 3)
	assert.Equal(t, int32(3), atomic.LoadInt32(&completions))
}

func TestExecuteAbsorbsAgentFailure(t *testing.T) {
	agents := stubAgents()
	agents[CapabilityQuality] = &stubAgent{name: "quality", err: errors.New("boom")}
	e := NewExecutor(agents, 3, nil)

	outputs := e.ExecuteParallel(context.Background(), AllCapabilities, "q", "", nil)
	require.Len(t, outputs, 3)
	assert.Equal(t, "[Erro no agente quality: boom]", outputs[CapabilityQuality])
	assert.Equal(t, "vegan dishes: salad", outputs[CapabilityNutrition])
}

func TestExecuteUnregisteredAgentReportsError(t *testing.T) {
	e := NewExecutor(map[Capability]Agent{}, 3, nil)

	outputs := e.ExecuteSequential(context.Background(), []Capability{CapabilityNutrition}, "q", "")
	assert.Contains(t, outputs[CapabilityNutrition], "[Erro no agente nutrition:")
}

// blockingAgent tracks how many agents run at the same time.
type blockingAgent struct {
	name    string
	active  *int32
	maxSeen *int32
	mu      *sync.Mutex
}

func (a *blockingAgent) Name() string { return a.name }

func (a *blockingAgent) Answer(context.Context, string, string) (string, error) {
	n := atomic.AddInt32(a.active, 1)
	a.mu.Lock()
	if n > *a.maxSeen {
		*a.maxSeen = n
	}
	a.mu.Unlock()
	time.Sleep(20 * time.Millisecond)
	atomic.AddInt32(a.active, -1)
	return "ok", nil
}

func TestExecuteParallelRespectsConcurrencyBound(t *testing.T) {
	var active, maxSeen int32
	var mu sync.Mutex
	agents := map[Capability]Agent{}
	for _, c := range AllCapabilities {
		agents[c] = &blockingAgent{name: string(c), active: &active, maxSeen: &maxSeen, mu: &mu}
	}
	e := NewExecutor(agents, 1, nil)

	outputs := e.ExecuteParallel(context.Background(), AllCapabilities, "q", "", nil)
	require.Len(t, outputs, 3)

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, maxSeen, int32(1))
}
