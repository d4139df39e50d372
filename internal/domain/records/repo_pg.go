package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// =========== Patient Repository ===========

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) GetByPID(ctx context.Context, pid string) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT p.pid, p.uid, p.age, p.gender, p.city, p.state,
			p.allergies, p.current_medications, p.chronic_conditions, p.created_at,
			u.uid, u.name, u.email, u.phone, u.profile_image_url, u.is_verified, u.is_active
		FROM patients p
		JOIN users u ON u.uid = p.uid
		WHERE p.pid = $1`, pid)

	var p Patient
	var u User
	err := row.Scan(&p.PID, &p.UID, &p.Age, &p.Gender, &p.City, &p.State,
		&p.Allergies, &p.CurrentMedications, &p.ChronicConditions, &p.CreatedAt,
		&u.UID, &u.Name, &u.Email, &u.Phone, &u.ProfileImageURL, &u.IsVerified, &u.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w with pid: %s", ErrPatientNotFound, pid)
		}
		return nil, fmt.Errorf("query patient: %w", err)
	}
	p.User = &u
	return &p, nil
}

// =========== Appointment Repository ===========

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) GetForPatient(ctx context.Context, aid, pid string) (*Appointment, error) {
	// Scoped by both ids so an aid belonging to another patient reads as
	// absent, not as that patient's row.
	row := r.pool.QueryRow(ctx, `
		SELECT a.aid, a.pid, a.did, a.scheduled_date, a.chief_complaint, a.status, a.created_at,
			d.did, d.specialization, d.qualification,
			u.name, u.email, u.phone
		FROM appointments a
		JOIN doctors d ON d.did = a.did
		JOIN users u ON u.uid = d.uid
		WHERE a.aid = $1 AND a.pid = $2`, aid, pid)

	var a Appointment
	var d Doctor
	var u User
	err := row.Scan(&a.AID, &a.PID, &a.DID, &a.ScheduledDate, &a.ChiefComplaint, &a.Status, &a.CreatedAt,
		&d.DID, &d.Specialization, &d.Qualification,
		&u.Name, &u.Email, &u.Phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w with aid: %s", ErrAppointmentNotFound, aid)
		}
		return nil, fmt.Errorf("query appointment: %w", err)
	}
	d.User = &u
	a.Doctor = &d
	return &a, nil
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, pid string) ([]*Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.aid, a.pid, a.did, a.scheduled_date, a.chief_complaint, a.status, a.created_at,
			d.did, d.specialization, d.qualification,
			u.name, u.email
		FROM appointments a
		JOIN doctors d ON d.did = a.did
		JOIN users u ON u.uid = d.uid
		WHERE a.pid = $1
		ORDER BY a.scheduled_date DESC
		LIMIT $2`, pid, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()

	items := []*Appointment{}
	for rows.Next() {
		var a Appointment
		var d Doctor
		var u User
		if err := rows.Scan(&a.AID, &a.PID, &a.DID, &a.ScheduledDate, &a.ChiefComplaint, &a.Status, &a.CreatedAt,
			&d.DID, &d.Specialization, &d.Qualification,
			&u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		d.User = &u
		a.Doctor = &d
		items = append(items, &a)
	}
	return items, rows.Err()
}

// =========== Prescription Repository ===========

type prescriptionRepoPG struct{ pool *pgxpool.Pool }

func NewPrescriptionRepoPG(pool *pgxpool.Pool) PrescriptionRepository {
	return &prescriptionRepoPG{pool: pool}
}

func (r *prescriptionRepoPG) ListByPatient(ctx context.Context, pid string) ([]*Prescription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT pr.prid, pr.pid, pr.did, pr.content, pr.created_at,
			d.did, d.specialization, d.qualification,
			u.name
		FROM prescriptions pr
		JOIN doctors d ON d.did = pr.did
		JOIN users u ON u.uid = d.uid
		WHERE pr.pid = $1
		ORDER BY pr.created_at DESC
		LIMIT $2`, pid, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("query prescriptions: %w", err)
	}
	defer rows.Close()

	items := []*Prescription{}
	for rows.Next() {
		var p Prescription
		var d Doctor
		var u User
		if err := rows.Scan(&p.PRID, &p.PID, &p.DID, &p.Content, &p.CreatedAt,
			&d.DID, &d.Specialization, &d.Qualification,
			&u.Name); err != nil {
			return nil, fmt.Errorf("scan prescription: %w", err)
		}
		d.User = &u
		p.Doctor = &d
		items = append(items, &p)
	}
	return items, rows.Err()
}
