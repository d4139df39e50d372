package prescribe

import (
	"fmt"
	"strings"

	"github.com/manas-health/mcp-api/internal/domain/records"
)

// BuildPrompt renders the model prompt from the patient bundle and the
// doctor's free-text instructions. Missing demographics fall back to
// neutral placeholders so the prompt shape stays constant.
func BuildPrompt(bundle *records.Bundle, doctorPrompt string) string {
	patient := bundle.Patient

	name := "Patient"
	if patient.User != nil && patient.User.Name != "" {
		name = patient.User.Name
	}

	age := "Not specified"
	if patient.Age != nil {
		age = fmt.Sprintf("%d", *patient.Age)
	}

	gender := "Not specified"
	if patient.Gender != nil && *patient.Gender != "" {
		gender = *patient.Gender
	}

	location := fmt.Sprintf("%s, %s", stringOr(patient.City, "Unknown"), stringOr(patient.State, "Unknown"))

	complaint := "General consultation"
	if len(bundle.Appointments) > 0 {
		a := bundle.Appointments[0]
		if a.ChiefComplaint != nil && *a.ChiefComplaint != "" {
			complaint = *a.ChiefComplaint
		}
	}

	var b strings.Builder
	b.WriteString("You are Dr. Manas AI, an expert Ayurvedic physician assistant. Generate a comprehensive, personalized prescription based on the following patient data:\n\n")
	b.WriteString("**DOCTOR'S SPECIFIC INSTRUCTIONS:**\n")
	b.WriteString(doctorPrompt)
	b.WriteString("\n\n**PATIENT PROFILE:**\n")
	fmt.Fprintf(&b, "- Name: %s\n", name)
	fmt.Fprintf(&b, "- Age: %s\n", age)
	fmt.Fprintf(&b, "- Gender: %s\n", gender)
	fmt.Fprintf(&b, "- Location: %s\n", location)
	b.WriteString("\n**MEDICAL HISTORY:**\n")
	fmt.Fprintf(&b, "- Allergies: %s\n", joinOrNone(patient.Allergies))
	fmt.Fprintf(&b, "- Current Medications: %s\n", joinOrNone(patient.CurrentMedications))
	fmt.Fprintf(&b, "- Chronic Conditions: %s\n", joinOrNone(patient.ChronicConditions))
	b.WriteString("\n**CURRENT CONSULTATION:**\n")
	fmt.Fprintf(&b, "- Complaint: %s\n", complaint)
	b.WriteString(`
**OUTPUT FORMAT (STRICT JSON):**
{
  "diagnosis": "Diagnosis based on symptoms",
  "symptoms": ["symptom1", "symptom2"],
  "medicines": [
    {
      "name": "Medicine Name",
      "dosage": "Dosage",
      "frequency": "Frequency",
      "duration": "Duration (e.g. 7 days)",
      "notes": "Notes"
    }
  ],
  "instructions": "Instructions",
  "dietAdvice": "Diet advice",
  "followUpDays": 7,
  "safetyNotes": "Safety notes"
}
RESPOND ONLY WITH JSON.
`)
	return b.String()
}

func stringOr(s *string, fallback string) string {
	if s != nil && *s != "" {
		return *s
	}
	return fallback
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}
