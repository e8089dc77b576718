package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrVisitNotFound       = errors.New("visit not found")

	// ErrTableAbsent means an optional table is not part of this deployment's
	// schema. Callers skip the dependent step.
	ErrTableAbsent = errors.New("table absent from schema")
)

// Terminal appointment statuses. An appointment in one of these is never
// swept, conflicted against, or transitioned again.
const (
	StatusScheduled = "SCHEDULED"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
	StatusNoShow    = "NO_SHOW"
)

// Store contains all appointment-book reads and writes the agent needs.
type Store interface {
	// GetAppointment loads the full appointment row, ErrAppointmentNotFound
	// when the id does not exist.
	GetAppointment(ctx context.Context, id int64) (Row, error)

	// ListActiveByDoctor returns non-terminal appointments for the doctor,
	// excluding excludeID.
	ListActiveByDoctor(ctx context.Context, doctorID, excludeID int64) ([]Row, error)

	// ListActiveByRoom is the room-scoped variant. Returns nil without error
	// when the schema has no room assignment column.
	ListActiveByRoom(ctx context.Context, roomID, excludeID int64) ([]Row, error)

	// ListScheduledOn returns every appointment on the given calendar day.
	ListScheduledOn(ctx context.Context, day time.Time) ([]Row, error)

	// UpdatePredictedFields persists the predicted duration and derived end
	// time-of-day, writing only the columns this schema has.
	UpdatePredictedFields(ctx context.Context, id int64, durationMin int, endOfDay string) error

	MarkNoShow(ctx context.Context, id int64) error

	// HistoricalDurations returns positive actual durations recorded for the
	// procedure type, ascending.
	HistoricalDurations(ctx context.Context, procType string) ([]int, error)

	// VisitForAppointment returns the visit id for the appointment,
	// ErrVisitNotFound when none exists, ErrTableAbsent without a visits table.
	VisitForAppointment(ctx context.Context, appointmentID int64) (int64, error)
	CreateVisit(ctx context.Context, appointmentID, patientID, doctorID int64, linkedCaseID *int64) (int64, error)

	VisitHasProcedures(ctx context.Context, visitID int64) (bool, error)
	InsertSeedProcedure(ctx context.Context, visitID int64, procType string, predictedMin int) error

	// InsertAudit appends one audit row, ErrTableAbsent without an audit table.
	InsertAudit(ctx context.Context, appointmentID int64, action string, meta []byte) error
}

// IsTerminal reports whether the status excludes an appointment from further
// processing.
func IsTerminal(status string) bool {
	switch status {
	case StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	default:
		return false
	}
}
