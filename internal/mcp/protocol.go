// Package mcp implements the envelope protocol served at POST /mcp: a
// stateless method/params request wrapper with a result-or-error response,
// exposing the patient-data aggregate as a callable tool.
package mcp

import "encoding/json"

// Reserved error codes.
const (
	CodeMethodNotFound = -32601
	CodeInternalError  = -32603
)

const (
	protocolVersion = "1.0"
	serverName      = "patient-data-mcp"
	serverVersion   = "1.0.0"
	toolName        = "fetch_patient_data"
)

// Request is the inbound envelope.
type Request struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
	ID     interface{}     `json:"id,omitempty"`
}

// Response is the outbound envelope. It carries either a result or an
// error, never both, and echoes the request id when one was supplied.
type Response struct {
	JSONRPC string       `json:"jsonrpc"`
	ID      interface{}  `json:"id,omitempty"`
	Result  interface{}  `json:"result,omitempty"`
	Error   *ErrorObject `json:"error,omitempty"`
}

// ErrorObject is the error half of the envelope.
type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// CallParams is the params shape for tools/call.
type CallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// FetchArgs is the typed argument set for the fetch_patient_data tool.
// Boolean flags are pointers so that "absent" defaults to true.
type FetchArgs struct {
	PID                  string `json:"pid"`
	AID                  string `json:"aid,omitempty"`
	IncludePrescriptions *bool  `json:"include_prescriptions,omitempty"`
	IncludeAppointments  *bool  `json:"include_appointments,omitempty"`
}

func resultResponse(id, result interface{}) Response {
	return Response{JSONRPC: "2.0", ID: id, Result: result}
}

func errorResponse(id interface{}, code int, message string) Response {
	return Response{JSONRPC: "2.0", ID: id, Error: &ErrorObject{Code: code, Message: message}}
}

func initializeResult() map[string]interface{} {
	return map[string]interface{}{
		"protocolVersion": protocolVersion,
		"serverInfo": map[string]string{
			"name":    serverName,
			"version": serverVersion,
		},
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{},
		},
	}
}

func toolsListResult() map[string]interface{} {
	return map[string]interface{}{
		"tools": []map[string]interface{}{
			{
				"name":        toolName,
				"description": "Fetch comprehensive patient data including demographics, medical history, appointments, and prescriptions.",
				"inputSchema": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"pid":                   map[string]string{"type": "string"},
						"aid":                   map[string]string{"type": "string"},
						"include_prescriptions": map[string]string{"type": "boolean"},
						"include_appointments":  map[string]string{"type": "boolean"},
					},
					"required": []string{"pid"},
				},
			},
		},
	}
}
