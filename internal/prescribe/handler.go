package prescribe

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/manas-health/mcp-api/internal/domain/records"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/generate-prescription", h.Generate)
}

type generateRequest struct {
	PID    string `json:"pid"`
	Prompt string `json:"prompt"`
}

// Generate serves POST /generate-prescription.
func (h *Handler) Generate(c echo.Context) error {
	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.PID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "pid is required"})
	}
	if req.Prompt == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "prompt is required"})
	}

	// Annotate the request for the audit middleware.
	c.Set("patient_id", req.PID)

	result, err := h.svc.Generate(c.Request().Context(), req.PID, req.Prompt)
	if err != nil {
		if errors.Is(err, records.ErrPatientNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		h.logger.Error().Err(err).Str("pid", req.PID).Msg("prescription generation failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, result)
}
