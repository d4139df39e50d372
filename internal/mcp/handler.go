package mcp

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/manas-health/mcp-api/internal/domain/records"
)

// Handler translates envelope requests into aggregator calls. It is
// state-free; every request is dispatched on its method name alone.
type Handler struct {
	svc    *records.Service
	logger zerolog.Logger
}

func NewHandler(svc *records.Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/mcp", h.Handle)
}

// Handle serves POST /mcp. The envelope always answers 200; failures are
// expressed through the error half of the response, so a handler fault can
// never crash the request loop.
func (h *Handler) Handle(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusOK, errorResponse(nil, CodeInternalError, fmt.Sprintf("Internal error: %s", err.Error())))
	}

	resp := h.dispatch(c, req)
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) dispatch(c echo.Context, req Request) Response {
	switch req.Method {
	case "initialize":
		return resultResponse(req.ID, initializeResult())

	case "tools/list":
		return resultResponse(req.ID, toolsListResult())

	case "tools/call":
		return h.handleToolCall(c, req)

	default:
		return errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("Unknown method: %s", req.Method))
	}
}

func (h *Handler) handleToolCall(c echo.Context, req Request) Response {
	// Absent params is a handler fault, not an unknown tool.
	if len(req.Params) == 0 {
		return errorResponse(req.ID, CodeInternalError, "Internal error: missing params")
	}

	var params CallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, CodeInternalError, fmt.Sprintf("Internal error: %s", err.Error()))
	}

	if params.Name != toolName {
		return errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("Unknown tool: %s", params.Name))
	}

	var args FetchArgs
	if len(params.Arguments) > 0 {
		if err := json.Unmarshal(params.Arguments, &args); err != nil {
			return errorResponse(req.ID, CodeInternalError, fmt.Sprintf("Internal error: %s", err.Error()))
		}
	}
	if args.PID == "" {
		return errorResponse(req.ID, CodeInternalError, "Internal error: pid is required and must be a non-empty string")
	}

	fetchReq := records.FetchRequest{
		PID:                  args.PID,
		AID:                  args.AID,
		IncludeAppointments:  true,
		IncludePrescriptions: true,
	}
	if args.IncludeAppointments != nil {
		fetchReq.IncludeAppointments = *args.IncludeAppointments
	}
	if args.IncludePrescriptions != nil {
		fetchReq.IncludePrescriptions = *args.IncludePrescriptions
	}

	// Annotate the request for the audit middleware.
	c.Set("patient_id", args.PID)

	bundle, err := h.svc.FetchBundle(c.Request().Context(), fetchReq)
	if err != nil {
		h.logger.Error().Err(err).Str("pid", args.PID).Msg("fetch patient bundle failed")
		return errorResponse(req.ID, CodeInternalError, fmt.Sprintf("Internal error: %s", err.Error()))
	}

	text, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return errorResponse(req.ID, CodeInternalError, fmt.Sprintf("Internal error: %s", err.Error()))
	}

	return resultResponse(req.ID, map[string]interface{}{
		"content": []map[string]string{
			{"type": "text", "text": string(text)},
		},
	})
}
