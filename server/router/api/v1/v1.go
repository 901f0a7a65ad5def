// Package v1 implements the REST API surface.
package v1

import (
	"github.com/labstack/echo/v4"

	"github.com/saborlabs/saborai/ai/agents/supervisor"
	"github.com/saborlabs/saborai/ingestion"
	"github.com/saborlabs/saborai/internal/profile"
	"github.com/saborlabs/saborai/store"
)

// APIV1Service holds the domain services behind the /api/v1 routes.
type APIV1Service struct {
	Profile    *profile.Profile
	Store      *store.Store
	Supervisor *supervisor.Supervisor
	Pipeline   *ingestion.Pipeline
}

// NewAPIV1Service creates the v1 API service.
func NewAPIV1Service(instanceProfile *profile.Profile, storeInstance *store.Store, sup *supervisor.Supervisor, pipeline *ingestion.Pipeline) *APIV1Service {
	return &APIV1Service{
		Profile:    instanceProfile,
		Store:      storeInstance,
		Supervisor: sup,
		Pipeline:   pipeline,
	}
}

// Register mounts the v1 routes on the echo server.
func (s *APIV1Service) Register(echoServer *echo.Echo) {
	g := echoServer.Group("/api/v1")

	g.POST("/ingest/text", s.IngestText)
	g.POST("/ingest/file", s.IngestFile)
	g.GET("/menus", s.ListMenus)
	g.DELETE("/menus/:id", s.DeleteMenu)

	g.POST("/query", s.Query)
	g.POST("/query/stream", s.QueryStream)
}

type errorResponse struct {
	Message string `json:"message"`
}

func newErrorResponse(err error) errorResponse {
	return errorResponse{Message: err.Error()}
}
