package v1

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/saborlabs/saborai/ai/agents/supervisor"
)

type queryRequest struct {
	Query    string `json:"query"`
	MenuName string `json:"menu_name"`
}

// Query orchestrates one query and returns the full result. Pass ?parallel=1
// to fan the specialists out concurrently.
func (s *APIV1Service) Query(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, newErrorResponse(fmt.Errorf("invalid request body: %w", err)))
	}
	if strings.TrimSpace(req.Query) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "query is required"})
	}

	ctx := c.Request().Context()
	var (
		result *supervisor.Result
		err    error
	)
	if parallelRequested(c.QueryParam("parallel")) {
		result, err = s.Supervisor.RunParallel(ctx, req.Query, req.MenuName)
	} else {
		result, err = s.Supervisor.Run(ctx, req.Query, req.MenuName)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, newErrorResponse(err))
	}
	return c.JSON(http.StatusOK, result)
}

// QueryStream orchestrates one query with parallel fan-out, streaming
// progress as server-sent events: routing, one agent event per specialist in
// completion order, response, then done with the full result.
func (s *APIV1Service) QueryStream(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, newErrorResponse(fmt.Errorf("invalid request body: %w", err)))
	}
	if strings.TrimSpace(req.Query) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "query is required"})
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)

	writeEvent := func(eventType, data string) {
		fmt.Fprintf(resp, "event: %s\n", eventType)
		for _, line := range strings.Split(data, "\n") {
			fmt.Fprintf(resp, "data: %s\n", line)
		}
		fmt.Fprint(resp, "\n")
		resp.Flush()
	}

	// The dispatcher serializes callback invocations, so writes never
	// interleave. Failures surface to the client as an error event sent by
	// the supervisor itself.
	_, _ = s.Supervisor.Stream(c.Request().Context(), req.Query, req.MenuName, writeEvent)
	return nil
}

func parallelRequested(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	}
	return false
}
