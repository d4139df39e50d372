package records

import "errors"

// Sentinel errors let callers separate "the row isn't there" from "the store
// is unreachable". Repos wrap these; handlers branch with errors.Is.
var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)
