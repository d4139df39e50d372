package prescribe

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/manas-health/mcp-api/internal/domain/records"
)

func doGenerate(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/generate-prescription", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Generate(c); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	return rec
}

func newTestHandler(patients map[string]*records.Patient, gen TextGenerator, auditor PlanAuditor) *Handler {
	svc := NewService(newRecordsService(patients), gen, auditor, zerolog.Nop())
	return NewHandler(svc, zerolog.Nop())
}

func TestGenerateEndpoint_Success(t *testing.T) {
	h := newTestHandler(
		map[string]*records.Patient{"p1": {PID: "p1"}},
		&mockGenerator{output: validModelOutput},
		&mockAuditor{planID: "plan-1", verified: true},
	)

	rec := doGenerate(t, h, `{"pid":"p1","prompt":"Treat mild fever"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !result.SecurityVerified {
		t.Error("expected security_verified true")
	}
	if result.ArmorIQPlanID == nil || *result.ArmorIQPlanID != "plan-1" {
		t.Errorf("expected plan-1, got %v", result.ArmorIQPlanID)
	}
	if !strings.Contains(result.PrescriptionContent, "**Diagnosis:** Viral fever") {
		t.Errorf("unexpected content: %s", result.PrescriptionContent)
	}
}

func TestGenerateEndpoint_UnverifiedPlanIsNull(t *testing.T) {
	h := newTestHandler(
		map[string]*records.Patient{"p1": {PID: "p1"}},
		&mockGenerator{output: validModelOutput},
		&mockAuditor{verified: false},
	)

	rec := doGenerate(t, h, `{"pid":"p1","prompt":"x"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if raw["security_verified"] != false {
		t.Error("expected security_verified false")
	}
	if v, ok := raw["armoriq_plan_id"]; !ok || v != nil {
		t.Errorf("expected armoriq_plan_id null, got %v", v)
	}
}

func TestGenerateEndpoint_MissingFields(t *testing.T) {
	h := newTestHandler(nil, &mockGenerator{}, nil)

	rec := doGenerate(t, h, `{"prompt":"x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing pid, got %d", rec.Code)
	}

	rec = doGenerate(t, h, `{"pid":"p1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing prompt, got %d", rec.Code)
	}
}

func TestGenerateEndpoint_PatientNotFound(t *testing.T) {
	h := newTestHandler(nil, &mockGenerator{output: validModelOutput}, nil)

	rec := doGenerate(t, h, `{"pid":"ghost","prompt":"x"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ghost") {
		t.Errorf("expected pid in error body, got %s", rec.Body.String())
	}
}

func TestGenerateEndpoint_ModelFailure(t *testing.T) {
	h := newTestHandler(
		map[string]*records.Patient{"p1": {PID: "p1"}},
		&mockGenerator{output: "no json here"},
		nil,
	)

	rec := doGenerate(t, h, `{"pid":"p1","prompt":"x"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}
