// Package prescribe orchestrates AI prescription generation: audit the
// plan, fetch the patient bundle, prompt the model, and parse its output.
package prescribe

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/manas-health/mcp-api/internal/domain/records"
)

// TextGenerator produces model text for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// PlanAuditor submits an execution plan for verification before any
// patient data is read. Implementations must degrade, not fail: a
// rejected or unreachable auditor yields ("", false).
type PlanAuditor interface {
	VerifyPlan(ctx context.Context, pid, prompt string) (planID string, verified bool)
}

// Result is the generation outcome returned to clients.
type Result struct {
	PrescriptionContent string        `json:"prescription_content"`
	SecurityVerified    bool          `json:"security_verified"`
	RawData             *Prescription `json:"raw_data"`
	ArmorIQPlanID       *string       `json:"armoriq_plan_id"`
}

type Service struct {
	records   *records.Service
	generator TextGenerator
	auditor   PlanAuditor
	logger    zerolog.Logger
}

// NewService wires the generation pipeline. auditor may be nil, in
// which case every result reports security_verified false.
func NewService(recordsSvc *records.Service, generator TextGenerator, auditor PlanAuditor, logger zerolog.Logger) *Service {
	return &Service{
		records:   recordsSvc,
		generator: generator,
		auditor:   auditor,
		logger:    logger.With().Str("component", "prescribe").Logger(),
	}
}

// Generate runs the full pipeline for one patient. The audit step runs
// first and never blocks; store and model failures abort with an error.
func (s *Service) Generate(ctx context.Context, pid, doctorPrompt string) (*Result, error) {
	var planID *string
	verified := false
	if s.auditor != nil {
		if id, ok := s.auditor.VerifyPlan(ctx, pid, doctorPrompt); ok {
			planID = &id
			verified = true
		}
	}

	bundle, err := s.records.FetchBundle(ctx, records.FetchRequest{
		PID:                  pid,
		IncludeAppointments:  true,
		IncludePrescriptions: true,
	})
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(bundle, doctorPrompt)

	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate prescription: %w", err)
	}

	prescription, err := ParseModelOutput(raw)
	if err != nil {
		s.logger.Error().Err(err).Str("pid", pid).Msg("model output unparseable")
		return nil, err
	}

	return &Result{
		PrescriptionContent: FormatContent(prescription),
		SecurityVerified:    verified,
		RawData:             prescription,
		ArmorIQPlanID:       planID,
	}, nil
}
