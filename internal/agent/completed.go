package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/clinicops/appointment-agent/internal/notify"
	"github.com/clinicops/appointment-agent/internal/store"
)

// handleCompleted closes the loop on a finished appointment: it makes sure a
// visit exists, seeds the first visit procedure when none was recorded, and
// tells the patient. Every step against an optional table is best-effort.
func (a *Agent) handleCompleted(ctx context.Context, log zerolog.Logger, payload Payload) error {
	apptID := payload.Int64("appointmentId")
	if apptID == 0 {
		return nil
	}

	row, err := a.store.GetAppointment(ctx, apptID)
	if err != nil {
		if errors.Is(err, store.ErrAppointmentNotFound) {
			log.Debug().Int64("appointment_id", apptID).Msg("completed appointment not found")
			return nil
		}
		return fmt.Errorf("load appointment %d: %w", apptID, err)
	}

	patientID := row.Int64("patient_id")
	doctorID := row.Int64("doctor_id")
	procType := row.String("type")
	if procType == "" {
		procType = "CONSULTATION"
	}

	var linkedCaseID *int64
	if id := payload.Int64("linkedCaseId"); id != 0 {
		linkedCaseID = &id
	} else if id := row.Int64("linked_case_id"); id != 0 {
		linkedCaseID = &id
	}

	visitID := a.ensureVisit(ctx, log, apptID, patientID, doctorID, linkedCaseID)
	if visitID != 0 {
		a.ensureVisitProcedure(ctx, log, visitID, procType)
	}

	a.recordAudit(ctx, apptID, "COMPLETED", map[string]any{"source": "appointment_agent"})

	if patientID != 0 {
		a.notifyBestEffort(ctx, notify.Notification{
			UserID:       patientID,
			Title:        "Appointment Completed",
			Message:      "Your appointment is marked as completed. Billing and follow-ups (if any) will be updated shortly.",
			Type:         notify.TypeCompleted,
			RelatedTable: "appointments",
			RelatedID:    apptID,
		})
	}

	return nil
}

// ensureVisit returns the appointment's visit id, creating an OPEN visit if
// this is the first completion. Returns 0 when the deployment has no visits
// table or the step failed.
func (a *Agent) ensureVisit(ctx context.Context, log zerolog.Logger, apptID, patientID, doctorID int64, linkedCaseID *int64) int64 {
	visitID, err := a.store.VisitForAppointment(ctx, apptID)
	switch {
	case err == nil:
		return visitID
	case errors.Is(err, store.ErrTableAbsent):
		return 0
	case errors.Is(err, store.ErrVisitNotFound):
		created, err := a.store.CreateVisit(ctx, apptID, patientID, doctorID, linkedCaseID)
		if err != nil {
			log.Warn().Err(err).Int64("appointment_id", apptID).Msg("visit not created")
			return 0
		}
		return created
	default:
		log.Warn().Err(err).Int64("appointment_id", apptID).Msg("visit lookup failed")
		return 0
	}
}

// ensureVisitProcedure seeds one procedure row with a fresh prediction when
// the visit has none.
func (a *Agent) ensureVisitProcedure(ctx context.Context, log zerolog.Logger, visitID int64, procType string) {
	has, err := a.store.VisitHasProcedures(ctx, visitID)
	if err != nil {
		if !errors.Is(err, store.ErrTableAbsent) {
			log.Warn().Err(err).Int64("visit_id", visitID).Msg("visit procedure lookup failed")
		}
		return
	}
	if has {
		return
	}

	predicted := a.PredictDuration(ctx, procType)
	if err := a.store.InsertSeedProcedure(ctx, visitID, NormalizeProcedureType(procType), predicted); err != nil {
		log.Warn().Err(err).Int64("visit_id", visitID).Msg("seed procedure not inserted")
	}
}
