// Package armoriq submits prescription execution plans to the ArmorIQ
// audit service. Verification is advisory: every failure degrades to an
// unverified result and the caller proceeds regardless.
package armoriq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const tokenValiditySeconds = 3600

type Client struct {
	apiKey     string
	baseURL    string
	userID     string
	agentID    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

func NewClient(apiKey, baseURL, userID, agentID string, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		userID:  userID,
		agentID: agentID,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger.With().Str("component", "armoriq").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether an API key was configured. Without one the
// audit step is skipped entirely.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// PlanStep is one action in an execution plan.
type PlanStep struct {
	Action      string                 `json:"action"`
	MCP         string                 `json:"mcp"`
	Description string                 `json:"description"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

type plan struct {
	Steps []PlanStep `json:"steps"`
}

type intentTokenRequest struct {
	UserID          string                 `json:"user_id"`
	AgentID         string                 `json:"agent_id"`
	LLM             string                 `json:"llm"`
	Prompt          string                 `json:"prompt"`
	Plan            plan                   `json:"plan"`
	Metadata        map[string]interface{} `json:"metadata"`
	ValiditySeconds float64                `json:"validity_seconds"`
}

type intentTokenResponse struct {
	PlanID string `json:"plan_id"`
	Token  string `json:"token"`
}

// VerifyPlan captures the three-step prescription plan, validates it
// locally, and requests an intent token from the audit backend. It
// returns the plan id and whether the backend accepted the submission.
// Any failure returns ("", false) after a warning; verification never
// blocks generation.
func (c *Client) VerifyPlan(ctx context.Context, pid, prompt string) (string, bool) {
	if !c.Enabled() {
		return "", false
	}

	p := buildPlan(pid)
	if err := validatePlan(p); err != nil {
		c.logger.Warn().Err(err).Msg("plan validation failed")
		return "", false
	}

	body := intentTokenRequest{
		UserID:  c.userID,
		AgentID: c.agentID,
		LLM:     "gemini-2.5-flash",
		Prompt:  prompt,
		Plan:    p,
		Metadata: map[string]interface{}{
			"purpose":         "prescription_generation",
			"compliance":      "HIPAA",
			"tags":            []string{"healthcare", "ai-prescription", "ayurveda"},
			"patient_id_hash": anonymizePID(pid),
			"timestamp":       time.Now().UTC().Format(time.RFC3339),
		},
		ValiditySeconds: tokenValiditySeconds,
	}

	planID, err := c.requestIntentToken(ctx, body)
	if err != nil {
		c.logger.Warn().Err(err).Msg("intent token request failed")
		return "", false
	}
	if planID == "" {
		c.logger.Warn().Msg("plan submitted but no id returned")
		return "", false
	}

	c.logger.Info().Str("plan_id", planID).Msg("plan submitted")
	return planID, true
}

func (c *Client) requestIntentToken(ctx context.Context, body intentTokenRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal intent token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/intent-tokens", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call audit backend: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read audit response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("audit backend returned %d", resp.StatusCode)
	}

	var tr intentTokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return "", fmt.Errorf("decode audit response: %w", err)
	}
	return tr.PlanID, nil
}

// buildPlan describes the fixed fetch/generate/verify pipeline that the
// prescription endpoint executes.
func buildPlan(pid string) plan {
	return plan{Steps: []PlanStep{
		{
			Action:      "fetch_patient_data",
			MCP:         "patient-data-mcp",
			Description: "Retrieve patient medical history from the relational store",
			Metadata: map[string]interface{}{
				"pid":         pid,
				"data_source": "postgres",
			},
		},
		{
			Action:      "generate_prescription",
			MCP:         "gemini-ai-mcp",
			Description: "Generate AI prescription using Gemini 2.5 Flash",
			Metadata: map[string]interface{}{
				"model":       "gemini-2.5-flash",
				"prompt_type": "ayurvedic_prescription",
			},
		},
		{
			Action:      "verify_intent",
			MCP:         "armoriq-security-mcp",
			Description: "Verify prescription safety and HIPAA compliance",
			Metadata: map[string]interface{}{
				"compliance": "HIPAA",
			},
		},
	}}
}

func validatePlan(p plan) error {
	if len(p.Steps) == 0 {
		return fmt.Errorf("plan has no steps")
	}
	for i, s := range p.Steps {
		if s.Action == "" || s.MCP == "" {
			return fmt.Errorf("step %d missing action or mcp", i)
		}
	}
	return nil
}

// anonymizePID keeps only a prefix of the patient id for audit metadata.
func anonymizePID(pid string) string {
	if len(pid) <= 8 {
		return pid + "..."
	}
	return pid[:8] + "..."
}
