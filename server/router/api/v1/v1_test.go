package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saborlabs/saborai/ai/agents/supervisor"
	"github.com/saborlabs/saborai/ai/llm"
	"github.com/saborlabs/saborai/ingestion"
	"github.com/saborlabs/saborai/store"
)

type scriptedLLM struct {
	responses []string
	calls     int
}

func (s *scriptedLLM) Chat(ctx context.Context, messages []llm.Message) (string, *llm.CallStats, error) {
	return s.ChatWithTemperature(ctx, messages, 0.2)
}

func (s *scriptedLLM) ChatWithTemperature(context.Context, []llm.Message, float32) (string, *llm.CallStats, error) {
	if s.calls >= len(s.responses) {
		return "", nil, echo.ErrInternalServerError
	}
	response := s.responses[s.calls]
	s.calls++
	return response, nil, nil
}

func (s *scriptedLLM) Warmup(context.Context) {}

type stubAgent struct {
	name   string
	output string
}

func (a *stubAgent) Name() string { return a.name }

func (a *stubAgent) Answer(context.Context, string, string) (string, error) {
	return a.output, nil
}

type memDriver struct {
	chunks []*store.MenuChunk
}

func (d *memDriver) Migrate(context.Context) error { return nil }
func (d *memDriver) Close() error                  { return nil }

func (d *memDriver) UpsertMenuChunk(_ context.Context, chunk *store.MenuChunk) (*store.MenuChunk, error) {
	d.chunks = append(d.chunks, chunk)
	return chunk, nil
}

func (d *memDriver) ListMenuChunks(context.Context, *store.FindMenuChunk) ([]*store.MenuChunk, error) {
	return d.chunks, nil
}

func (d *memDriver) SearchSimilarChunks(context.Context, *store.SimilarChunkSearch) ([]*store.ScoredChunk, error) {
	return nil, nil
}

func (d *memDriver) ListMenus(context.Context) ([]*store.Menu, error) {
	if len(d.chunks) == 0 {
		return []*store.Menu{}, nil
	}
	return []*store.Menu{{
		MenuID:     d.chunks[0].MenuID,
		MenuName:   d.chunks[0].MenuName,
		ChunkCount: len(d.chunks),
	}}, nil
}

func (d *memDriver) DeleteMenu(_ context.Context, menuID string) error {
	if len(d.chunks) == 0 || d.chunks[0].MenuID != menuID {
		return store.ErrMenuNotFound
	}
	d.chunks = nil
	return nil
}

type staticEmbedder struct{}

func (staticEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (staticEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (staticEmbedder) Dimensions() int { return 3 }

func newTestService(responses ...string) (*APIV1Service, *echo.Echo) {
	storeInstance := store.New(&memDriver{}, nil)
	sup := supervisor.New(&scriptedLLM{responses: responses}, map[supervisor.Capability]supervisor.Agent{
		supervisor.CapabilityNutrition:      &stubAgent{name: "nutrition", output: "salada e vegana"},
		supervisor.CapabilityRecommendation: &stubAgent{name: "recommendation", output: "combo por R$60"},
		supervisor.CapabilityQuality:        &stubAgent{name: "quality", output: "nota 7"},
	}, nil)
	pipeline := ingestion.NewPipeline(storeInstance, staticEmbedder{}, 1024, 128)

	service := NewAPIV1Service(nil, storeInstance, sup, pipeline)
	e := echo.New()
	service.Register(e)
	return service, e
}

func TestIngestTextEndpoint(t *testing.T) {
	_, e := newTestService()

	body := `{"menu_name": "Bistro", "text": "Feijoada - R$ 45"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/text", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result ingestion.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "Bistro", result.MenuName)
	assert.Equal(t, 1, result.TotalChunks)
}

func TestIngestTextEndpointRequiresFields(t *testing.T) {
	_, e := newTestService()

	for _, body := range []string{
		`{"text": "Feijoada"}`,
		`{"menu_name": "Bistro"}`,
		`not json`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/text", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
	}
}

func TestQueryEndpoint(t *testing.T) {
	_, e := newTestService(`["nutrition"]`, "Os pratos veganos sao: salada.")

	body := `{"query": "Quais pratos são veganos?", "menu_name": "Bistro"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result supervisor.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, []supervisor.Capability{supervisor.CapabilityNutrition}, result.AgentsUsed)
	assert.Equal(t, "salada e vegana", result.AgentOutputs[supervisor.CapabilityNutrition])
	assert.Equal(t, "Os pratos veganos sao: salada.", result.Response)
}

func TestQueryEndpointParallelFlag(t *testing.T) {
	_, e := newTestService(`["nutrition", "quality"]`, "resposta final")

	body := `{"query": "Opções sem glúten e avalie as descrições"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/query?parallel=1", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result supervisor.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Len(t, result.AgentOutputs, 2)
}

func TestQueryEndpointRequiresQuery(t *testing.T) {
	_, e := newTestService()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", strings.NewReader(`{"query": "  "}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryStreamEndpointEmitsSSE(t *testing.T) {
	_, e := newTestService(`["recommendation"]`, "resposta final")

	body := `{"query": "Monte um combo por R$60"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/query/stream", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))

	output := rec.Body.String()
	routingIdx := strings.Index(output, "event: routing")
	agentIdx := strings.Index(output, "event: agent")
	responseIdx := strings.Index(output, "event: response")
	doneIdx := strings.Index(output, "event: done")

	require.GreaterOrEqual(t, routingIdx, 0)
	require.GreaterOrEqual(t, agentIdx, 0)
	require.GreaterOrEqual(t, responseIdx, 0)
	require.GreaterOrEqual(t, doneIdx, 0)
	assert.Less(t, routingIdx, agentIdx)
	assert.Less(t, agentIdx, responseIdx)
	assert.Less(t, responseIdx, doneIdx)
}

func TestMenusEndpoints(t *testing.T) {
	service, e := newTestService()

	_, err := service.Pipeline.IngestText(context.Background(), "Bistro", "Feijoada - R$ 45")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/menus", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Bistro")

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/menus/"+ingestion.MenuID("Bistro"), nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDeleteUnknownMenuReturnsNotFound(t *testing.T) {
	_, e := newTestService()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/menus/Inexistente", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
