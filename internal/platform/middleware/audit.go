package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// AuditEntry records one access to patient data: who asked for what, when,
// from where, and what came back.
type AuditEntry struct {
	RequestID  string
	PatientID  string
	Action     string // mcp, generate, read
	Path       string
	Method     string
	IPAddress  string
	UserAgent  string
	StatusCode int
	Timestamp  time.Time
}

// AuditRecorder persists audit entries. It decouples the middleware from any
// concrete sink so tests can supply a mock.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit returns middleware that logs every access to a patient-data endpoint.
// Handlers that resolve a patient set "patient_id" on the echo context; the
// middleware picks it up after the handler runs so the entry names the record
// that was actually served.
//
// If no AuditRecorder is provided, entries go to the structured log only.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path

			if !isAuditablePath(path) {
				return next(c)
			}

			// Execute the handler first so we capture the response status
			// and the patient id the handler resolved.
			err := next(c)

			entry := AuditEntry{
				Timestamp:  time.Now().UTC(),
				Path:       path,
				Method:     req.Method,
				IPAddress:  c.RealIP(),
				UserAgent:  req.UserAgent(),
				StatusCode: c.Response().Status,
				Action:     pathToAction(path, req.Method),
			}

			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}
			if pid, ok := c.Get("patient_id").(string); ok {
				entry.PatientID = pid
			}

			if len(recorders) > 0 && recorders[0] != nil {
				if recErr := recorders[0].RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record audit entry")
				}
			}

			logger.Info().
				Str("type", "phi_access").
				Str("request_id", entry.RequestID).
				Str("patient_id", entry.PatientID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("phi_access")

			return err
		}
	}
}

// isAuditablePath reports whether the path serves patient data.
func isAuditablePath(path string) bool {
	return path == "/mcp" || strings.HasPrefix(path, "/generate-prescription")
}

func pathToAction(path, method string) string {
	switch {
	case path == "/mcp":
		return "mcp"
	case strings.HasPrefix(path, "/generate-prescription"):
		return "generate"
	case method == http.MethodGet:
		return "read"
	default:
		return "read"
	}
}
