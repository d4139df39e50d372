package records

import (
	"time"
)

// User maps to the users table. Patients and doctors both link to a user row
// that carries contact and profile fields.
type User struct {
	UID             string  `db:"uid" json:"uid,omitempty"`
	Name            string  `db:"name" json:"name,omitempty"`
	Email           string  `db:"email" json:"email,omitempty"`
	Phone           *string `db:"phone" json:"phone,omitempty"`
	ProfileImageURL *string `db:"profile_image_url" json:"profile_image_url,omitempty"`
	IsVerified      *bool   `db:"is_verified" json:"is_verified,omitempty"`
	IsActive        *bool   `db:"is_active" json:"is_active,omitempty"`
}

// Patient maps to the patients table. Rows are owned by the record store and
// read-only from this service's perspective.
type Patient struct {
	PID                string     `db:"pid" json:"pid"`
	UID                string     `db:"uid" json:"uid"`
	Age                *int       `db:"age" json:"age,omitempty"`
	Gender             *string    `db:"gender" json:"gender,omitempty"`
	City               *string    `db:"city" json:"city,omitempty"`
	State              *string    `db:"state" json:"state,omitempty"`
	Allergies          []string   `db:"allergies" json:"allergies"`
	CurrentMedications []string   `db:"current_medications" json:"current_medications"`
	ChronicConditions  []string   `db:"chronic_conditions" json:"chronic_conditions"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	User               *User      `json:"user,omitempty"`
}

// Doctor maps to the doctors table, joined into appointment and prescription
// reads. Which User fields are populated depends on the view: list views get
// name/email, the single current-appointment view gets full contact fields.
type Doctor struct {
	DID            string `db:"did" json:"did"`
	Specialization string `db:"specialization" json:"specialization"`
	Qualification  string `db:"qualification" json:"qualification"`
	User           *User  `json:"user,omitempty"`
}

// Appointment maps to the appointments table. Listed newest-first by
// scheduled date.
type Appointment struct {
	AID            string    `db:"aid" json:"aid"`
	PID            string    `db:"pid" json:"pid"`
	DID            string    `db:"did" json:"did"`
	ScheduledDate  time.Time `db:"scheduled_date" json:"scheduled_date"`
	ChiefComplaint *string   `db:"chief_complaint" json:"chief_complaint,omitempty"`
	Status         *string   `db:"status" json:"status,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	Doctor         *Doctor   `json:"doctor,omitempty"`
}

// Prescription maps to the prescriptions table. Listed newest-first by
// creation time.
type Prescription struct {
	PRID      string    `db:"prid" json:"prid"`
	PID       string    `db:"pid" json:"pid"`
	DID       string    `db:"did" json:"did"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Doctor    *Doctor   `json:"doctor,omitempty"`
}

// BundleMetadata summarizes one aggregate fetch.
type BundleMetadata struct {
	FetchedAt          string `json:"fetched_at"`
	TotalAppointments  int    `json:"total_appointments"`
	TotalPrescriptions int    `json:"total_prescriptions"`
}

// Bundle is the aggregate returned by a single logical fetch: the patient,
// recent history, the explicitly requested appointment (if any), and
// metadata. Built fresh per request and never cached.
type Bundle struct {
	Patient            *Patient        `json:"patient"`
	Appointments       []*Appointment  `json:"appointments"`
	Prescriptions      []*Prescription `json:"prescriptions"`
	CurrentAppointment *Appointment    `json:"current_appointment"`
	Metadata           BundleMetadata  `json:"metadata"`
}
