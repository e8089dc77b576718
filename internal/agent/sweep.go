package agent

import (
	"context"
	"fmt"

	"github.com/clinicops/appointment-agent/internal/notify"
	"github.com/clinicops/appointment-agent/internal/store"
)

// MonitorSweep walks today's appointments (clinic time) and applies the
// time-based state machine: past the no-show grace the appointment becomes
// NO_SHOW with patient and doctor told; past the delay grace the doctor gets
// a single running-late alert. Terminal appointments and rows without a
// resolvable start are skipped, and one bad row never aborts the pass.
func (a *Agent) MonitorSweep(ctx context.Context) error {
	now := a.now()

	rows, err := a.store.ListScheduledOn(ctx, now)
	if err != nil {
		return fmt.Errorf("list today's appointments: %w", err)
	}

	for _, row := range rows {
		if store.IsTerminal(row.Status()) {
			continue
		}

		apptID := row.Int64("id")
		if apptID == 0 {
			continue
		}

		start := rowStart(row)
		if start == nil {
			continue
		}

		switch {
		case now.After(start.Add(a.rules.GraceNoShow)):
			a.escalateNoShow(ctx, apptID, row.Int64("patient_id"), row.Int64("doctor_id"))

		case now.After(start.Add(a.rules.GraceDelay)):
			a.alertDelay(ctx, apptID, row.Int64("doctor_id"), start.Format("15:04"))
		}
	}

	return nil
}

func (a *Agent) escalateNoShow(ctx context.Context, apptID, patientID, doctorID int64) {
	if err := a.store.MarkNoShow(ctx, apptID); err != nil {
		a.log.Warn().Err(err).Int64("appointment_id", apptID).Msg("no-show transition not persisted")
	}
	a.recordAudit(ctx, apptID, "NO_SHOW", map[string]any{"source": "appointment_agent"})

	if patientID != 0 {
		a.notifyBestEffort(ctx, notify.Notification{
			UserID:       patientID,
			Title:        "Missed Appointment",
			Message:      "You missed your appointment. Please reschedule if needed.",
			Type:         notify.TypeNoShow,
			RelatedTable: "appointments",
			RelatedID:    apptID,
		})
	}
	if doctorID != 0 {
		a.notifyBestEffort(ctx, notify.Notification{
			UserID:       doctorID,
			Title:        "No-show Alert",
			Message:      fmt.Sprintf("Patient did not arrive for Appointment #%d.", apptID),
			Type:         notify.TypeNoShow,
			RelatedTable: "appointments",
			RelatedID:    apptID,
		})
	}
}

// alertDelay tells the doctor an appointment is running late, once. The sweep
// re-evaluates every tick, so the marker keeps repeat passes quiet; if the
// marker itself fails, the alert goes out anyway — a duplicate beats silence.
func (a *Agent) alertDelay(ctx context.Context, apptID, doctorID int64, scheduledAt string) {
	if doctorID == 0 {
		return
	}

	first, err := a.marker.FirstAlert(ctx, "delay", apptID)
	if err != nil {
		a.log.Warn().Err(err).Int64("appointment_id", apptID).Msg("delay alert marker unavailable")
		first = true
	}
	if !first {
		return
	}

	a.notifyBestEffort(ctx, notify.Notification{
		UserID:       doctorID,
		Title:        "Appointment Running Late",
		Message:      fmt.Sprintf("Appointment #%d appears delayed (scheduled %s).", apptID, scheduledAt),
		Type:         notify.TypeDelay,
		RelatedTable: "appointments",
		RelatedID:    apptID,
	})
}
