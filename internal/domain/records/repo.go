package records

import (
	"context"
)

// historyLimit caps appointment and prescription history reads.
const historyLimit = 10

type PatientRepository interface {
	// GetByPID returns the patient with the joined user profile, or an error
	// wrapping ErrPatientNotFound when no row exists.
	GetByPID(ctx context.Context, pid string) (*Patient, error)
}

type AppointmentRepository interface {
	// GetForPatient is a point read scoped by both ids: an aid belonging to
	// a different patient is an error wrapping ErrAppointmentNotFound, never
	// another patient's row.
	GetForPatient(ctx context.Context, aid, pid string) (*Appointment, error)
	// ListByPatient returns up to 10 appointments, newest scheduled first.
	ListByPatient(ctx context.Context, pid string) ([]*Appointment, error)
}

type PrescriptionRepository interface {
	// ListByPatient returns up to 10 prescriptions, newest first.
	ListByPatient(ctx context.Context, pid string) ([]*Prescription, error)
}
