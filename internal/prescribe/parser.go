package prescribe

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidModelOutput indicates the model response contained no
// parseable JSON object.
var ErrInvalidModelOutput = errors.New("model did not return valid JSON")

// Medicine is one prescribed item.
type Medicine struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
	Notes     string `json:"notes,omitempty"`
}

// Prescription is the structured document parsed from the model output.
// Fields the model omits keep their zero values.
type Prescription struct {
	Diagnosis    string     `json:"diagnosis"`
	Symptoms     []string   `json:"symptoms"`
	Medicines    []Medicine `json:"medicines"`
	Instructions string     `json:"instructions"`
	DietAdvice   string     `json:"dietAdvice"`
	FollowUpDays int        `json:"followUpDays"`
	SafetyNotes  string     `json:"safetyNotes"`
}

// ParseModelOutput extracts the JSON object from a raw model response.
// Models wrap JSON in prose or markdown fences, so the parser takes the
// span from the first "{" to the last "}" and decodes that.
func ParseModelOutput(raw string) (*Prescription, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return nil, ErrInvalidModelOutput
	}

	var p Prescription
	if err := json.Unmarshal([]byte(raw[start:end+1]), &p); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidModelOutput, err.Error())
	}
	return &p, nil
}

// FormatContent renders the prescription as display text for clients
// that expect a single string.
func FormatContent(p *Prescription) string {
	var b strings.Builder
	b.WriteString("\n**Diagnosis:** ")
	b.WriteString(p.Diagnosis)
	b.WriteString("\n**Medicines:**\n")
	for _, m := range p.Medicines {
		fmt.Fprintf(&b, "- %s (%s, %s) for %s\n", m.Name, m.Dosage, m.Frequency, m.Duration)
	}
	fmt.Fprintf(&b, "\n**Instructions:** %s\n", p.Instructions)
	fmt.Fprintf(&b, "**Diet:** %s\n", p.DietAdvice)
	fmt.Fprintf(&b, "**Safety:** %s", p.SafetyNotes)
	return b.String()
}
