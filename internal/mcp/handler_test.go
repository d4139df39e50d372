package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/manas-health/mcp-api/internal/domain/records"
)

// -- Mock repositories --

type mockPatientRepo struct {
	patients map[string]*records.Patient
	err      error
}

func (m *mockPatientRepo) GetByPID(_ context.Context, pid string) (*records.Patient, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.patients[pid]
	if !ok {
		return nil, fmt.Errorf("%w with pid: %s", records.ErrPatientNotFound, pid)
	}
	return p, nil
}

type mockAppointmentRepo struct {
	appointments []*records.Appointment
}

func (m *mockAppointmentRepo) GetForPatient(_ context.Context, aid, pid string) (*records.Appointment, error) {
	for _, a := range m.appointments {
		if a.AID == aid && a.PID == pid {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w with aid: %s", records.ErrAppointmentNotFound, aid)
}

func (m *mockAppointmentRepo) ListByPatient(_ context.Context, pid string) ([]*records.Appointment, error) {
	result := []*records.Appointment{}
	for _, a := range m.appointments {
		if a.PID == pid {
			result = append(result, a)
		}
	}
	return result, nil
}

type mockPrescriptionRepo struct{}

func (m *mockPrescriptionRepo) ListByPatient(_ context.Context, pid string) ([]*records.Prescription, error) {
	return []*records.Prescription{}, nil
}

func newTestHandler(patients *mockPatientRepo) *Handler {
	if patients == nil {
		patients = &mockPatientRepo{patients: map[string]*records.Patient{}}
	}
	svc := records.NewService(patients, &mockAppointmentRepo{}, &mockPrescriptionRepo{})
	logger := zerolog.New(os.Stderr)
	return NewHandler(svc, logger)
}

func doRequest(t *testing.T, h *Handler, body string) Response {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Handle(c); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

// -- Tests --

func TestHandle_Initialize(t *testing.T) {
	h := newTestHandler(nil)
	resp := doRequest(t, h, `{"method":"initialize"}`)

	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("expected object result, got %T", resp.Result)
	}
	if result["protocolVersion"] != "1.0" {
		t.Errorf("expected protocolVersion 1.0, got %v", result["protocolVersion"])
	}
	info, _ := result["serverInfo"].(map[string]interface{})
	if info["name"] != "patient-data-mcp" {
		t.Errorf("expected server name patient-data-mcp, got %v", info["name"])
	}
}

func TestHandle_ToolsList(t *testing.T) {
	h := newTestHandler(nil)
	resp := doRequest(t, h, `{"method":"tools/list"}`)

	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	result, _ := resp.Result.(map[string]interface{})
	tools, _ := result["tools"].([]interface{})
	if len(tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(tools))
	}
	tool, _ := tools[0].(map[string]interface{})
	if tool["name"] != "fetch_patient_data" {
		t.Errorf("expected fetch_patient_data, got %v", tool["name"])
	}
	schema, _ := tool["inputSchema"].(map[string]interface{})
	required, _ := schema["required"].([]interface{})
	if len(required) != 1 || required[0] != "pid" {
		t.Errorf("expected pid to be the only required param, got %v", required)
	}
}

func TestHandle_UnknownMethod(t *testing.T) {
	h := newTestHandler(nil)
	resp := doRequest(t, h, `{"method":"resources/list"}`)

	if resp.Error == nil {
		t.Fatal("expected error for unknown method")
	}
	if resp.Error.Code != CodeMethodNotFound {
		t.Errorf("expected %d, got %d", CodeMethodNotFound, resp.Error.Code)
	}
	if resp.Result != nil {
		t.Error("response must not carry both result and error")
	}
}

func TestHandle_UnknownTool(t *testing.T) {
	h := newTestHandler(nil)
	resp := doRequest(t, h, `{"method":"tools/call","params":{"name":"delete_patient_data","arguments":{}}}`)

	if resp.Error == nil {
		t.Fatal("expected error for unknown tool")
	}
	if resp.Error.Code != CodeMethodNotFound {
		t.Errorf("expected %d, got %d", CodeMethodNotFound, resp.Error.Code)
	}
	if !strings.Contains(resp.Error.Message, "delete_patient_data") {
		t.Errorf("expected tool name in message, got %s", resp.Error.Message)
	}
}

func TestHandle_ToolCallMissingParams(t *testing.T) {
	h := newTestHandler(nil)
	resp := doRequest(t, h, `{"method":"tools/call"}`)

	if resp.Error == nil {
		t.Fatal("expected error for missing params")
	}
	if resp.Error.Code != CodeInternalError {
		t.Errorf("expected %d, got %d", CodeInternalError, resp.Error.Code)
	}
}

func TestHandle_ToolCallMissingPID(t *testing.T) {
	h := newTestHandler(nil)
	resp := doRequest(t, h, `{"method":"tools/call","params":{"name":"fetch_patient_data","arguments":{}}}`)

	if resp.Error == nil {
		t.Fatal("expected error for missing pid")
	}
	if resp.Error.Code != CodeInternalError {
		t.Errorf("expected %d, got %d", CodeInternalError, resp.Error.Code)
	}
	if !strings.Contains(resp.Error.Message, "pid") {
		t.Errorf("expected failing field named in message, got %s", resp.Error.Message)
	}
}

func TestHandle_ToolCallPatientNotFound(t *testing.T) {
	h := newTestHandler(nil)
	resp := doRequest(t, h, `{"method":"tools/call","params":{"name":"fetch_patient_data","arguments":{"pid":"ghost"}}}`)

	if resp.Error == nil {
		t.Fatal("expected error for missing patient")
	}
	if resp.Error.Code != CodeInternalError {
		t.Errorf("expected %d, got %d", CodeInternalError, resp.Error.Code)
	}
	if !strings.Contains(resp.Error.Message, "ghost") {
		t.Errorf("expected pid in message, got %s", resp.Error.Message)
	}
}

func TestHandle_ToolCallStoreFailure(t *testing.T) {
	h := newTestHandler(&mockPatientRepo{err: fmt.Errorf("connection refused")})
	resp := doRequest(t, h, `{"method":"tools/call","params":{"name":"fetch_patient_data","arguments":{"pid":"p1"}}}`)

	if resp.Error == nil {
		t.Fatal("expected error for store failure")
	}
	if resp.Error.Code != CodeInternalError {
		t.Errorf("expected %d, got %d", CodeInternalError, resp.Error.Code)
	}
	if !strings.Contains(resp.Error.Message, "connection refused") {
		t.Errorf("expected underlying message embedded, got %s", resp.Error.Message)
	}
}

func TestHandle_ToolCallSuccess(t *testing.T) {
	h := newTestHandler(&mockPatientRepo{patients: map[string]*records.Patient{
		"abc123": {PID: "abc123", UID: "u1"},
	}})
	resp := doRequest(t, h, `{"method":"tools/call","id":7,"params":{"name":"fetch_patient_data","arguments":{"pid":"abc123"}}}`)

	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	if resp.JSONRPC != "2.0" {
		t.Errorf("expected jsonrpc 2.0, got %s", resp.JSONRPC)
	}
	if id, ok := resp.ID.(float64); !ok || id != 7 {
		t.Errorf("expected id 7 echoed, got %v", resp.ID)
	}

	result, _ := resp.Result.(map[string]interface{})
	content, _ := result["content"].([]interface{})
	if len(content) != 1 {
		t.Fatalf("expected single content item, got %d", len(content))
	}
	item, _ := content[0].(map[string]interface{})
	if item["type"] != "text" {
		t.Errorf("expected text content, got %v", item["type"])
	}

	text, _ := item["text"].(string)
	var bundle records.Bundle
	if err := json.Unmarshal([]byte(text), &bundle); err != nil {
		t.Fatalf("embedded text is not valid JSON: %v", err)
	}
	if bundle.Patient == nil || bundle.Patient.PID != "abc123" {
		t.Errorf("expected patient abc123 in bundle, got %+v", bundle.Patient)
	}
	if bundle.CurrentAppointment != nil {
		t.Error("expected null current_appointment")
	}
	if bundle.Metadata.TotalAppointments != 0 || bundle.Metadata.TotalPrescriptions != 0 {
		t.Errorf("expected zero counts, got %+v", bundle.Metadata)
	}
}

func TestHandle_MalformedBody(t *testing.T) {
	h := newTestHandler(nil)
	resp := doRequest(t, h, `{"method":`)

	if resp.Error == nil {
		t.Fatal("expected error for malformed body")
	}
	if resp.Error.Code != CodeInternalError {
		t.Errorf("expected %d, got %d", CodeInternalError, resp.Error.Code)
	}
}
