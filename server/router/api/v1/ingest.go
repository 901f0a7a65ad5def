package v1

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/saborlabs/saborai/ingestion"
	"github.com/saborlabs/saborai/store"
)

// 2 MB is generous for a restaurant menu.
const maxMenuUploadBytes = 2 << 20

type ingestTextRequest struct {
	MenuName string `json:"menu_name"`
	Text     string `json:"text"`
}

// IngestText ingests raw menu text from the request body.
func (s *APIV1Service) IngestText(c echo.Context) error {
	var req ingestTextRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, newErrorResponse(fmt.Errorf("invalid request body: %w", err)))
	}
	if strings.TrimSpace(req.MenuName) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "menu_name is required"})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "text is required"})
	}

	result, err := s.Pipeline.IngestText(c.Request().Context(), req.MenuName, req.Text)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, newErrorResponse(err))
	}
	return c.JSON(http.StatusOK, result)
}

// IngestFile ingests an uploaded .txt or .md menu file. The menu name
// defaults to the file name without its extension.
func (s *APIV1Service) IngestFile(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "file is required"})
	}
	if fileHeader.Size > maxMenuUploadBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Message: "menu file too large"})
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".txt" && ext != ".md" {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Message: fmt.Sprintf("file type %q not supported (use .txt or .md)", ext),
		})
	}

	menuName := c.FormValue("menu_name")
	if strings.TrimSpace(menuName) == "" {
		menuName = strings.TrimSuffix(fileHeader.Filename, filepath.Ext(fileHeader.Filename))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, newErrorResponse(err))
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxMenuUploadBytes))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, newErrorResponse(err))
	}

	result, err := s.Pipeline.IngestText(c.Request().Context(), menuName, string(data))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, newErrorResponse(err))
	}
	return c.JSON(http.StatusOK, result)
}

// ListMenus returns the ingested menus with their chunk counts.
func (s *APIV1Service) ListMenus(c echo.Context) error {
	menus, err := s.Store.ListMenus(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, newErrorResponse(err))
	}
	return c.JSON(http.StatusOK, map[string]any{"menus": menus})
}

// DeleteMenu removes a menu and all its chunks. The id may be the menu id or
// the menu name.
func (s *APIV1Service) DeleteMenu(c echo.Context) error {
	id := c.Param("id")
	if len(id) != 8 {
		id = ingestion.MenuID(id)
	}
	if err := s.Store.DeleteMenu(c.Request().Context(), id); err != nil {
		if errors.Is(err, store.ErrMenuNotFound) {
			return c.JSON(http.StatusNotFound, newErrorResponse(err))
		}
		return c.JSON(http.StatusInternalServerError, newErrorResponse(err))
	}
	return c.NoContent(http.StatusNoContent)
}
