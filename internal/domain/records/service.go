package records

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// FetchRequest names the parameters of one aggregate fetch. History flags
// default to true at the protocol boundary; an empty AID skips the
// current-appointment read.
type FetchRequest struct {
	PID                  string
	AID                  string
	IncludeAppointments  bool
	IncludePrescriptions bool
}

// Service aggregates patient, appointment, and prescription reads into a
// single bundle. Stateless after construction; safe to share across
// concurrent requests.
type Service struct {
	patients      PatientRepository
	appointments  AppointmentRepository
	prescriptions PrescriptionRepository
}

func NewService(
	patients PatientRepository,
	appointments AppointmentRepository,
	prescriptions PrescriptionRepository,
) *Service {
	return &Service{
		patients:      patients,
		appointments:  appointments,
		prescriptions: prescriptions,
	}
}

// FetchBundle loads the patient and the requested history in one pass.
// A missing patient aborts with ErrPatientNotFound before any other read.
// A missing current appointment (including an aid owned by another patient)
// leaves CurrentAppointment nil and is not an error.
func (s *Service) FetchBundle(ctx context.Context, req FetchRequest) (*Bundle, error) {
	if req.PID == "" {
		return nil, fmt.Errorf("pid is required")
	}

	patient, err := s.patients.GetByPID(ctx, req.PID)
	if err != nil {
		return nil, err
	}

	bundle := &Bundle{
		Patient:       patient,
		Appointments:  []*Appointment{},
		Prescriptions: []*Prescription{},
	}

	if req.AID != "" {
		current, err := s.appointments.GetForPatient(ctx, req.AID, req.PID)
		switch {
		case err == nil:
			bundle.CurrentAppointment = current
		case errors.Is(err, ErrAppointmentNotFound):
			// absent or mis-scoped aid: leave empty
		default:
			return nil, err
		}
	}

	if req.IncludeAppointments {
		appts, err := s.appointments.ListByPatient(ctx, req.PID)
		if err != nil {
			return nil, err
		}
		bundle.Appointments = appts
	}

	if req.IncludePrescriptions {
		scripts, err := s.prescriptions.ListByPatient(ctx, req.PID)
		if err != nil {
			return nil, err
		}
		bundle.Prescriptions = scripts
	}

	bundle.Metadata = BundleMetadata{
		FetchedAt:          time.Now().UTC().Format(time.RFC3339),
		TotalAppointments:  len(bundle.Appointments),
		TotalPrescriptions: len(bundle.Prescriptions),
	}

	return bundle, nil
}
