package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicops/appointment-agent/internal/notify"
	"github.com/clinicops/appointment-agent/internal/store"
)

const prettyTimeLayout = "02 Jan 2006, 03:04 PM"

// handleCreated reacts to a freshly booked appointment: predicts its
// duration, persists the predicted fields, surfaces double-bookings, and
// schedules reminders. The payload carries fallback fields for records the
// booking flow only partially populated.
func (a *Agent) handleCreated(ctx context.Context, log zerolog.Logger, payload Payload) error {
	apptID := payload.Int64("appointmentId")
	if apptID == 0 {
		return nil
	}

	row, err := a.store.GetAppointment(ctx, apptID)
	if err != nil {
		if errors.Is(err, store.ErrAppointmentNotFound) {
			log.Debug().Int64("appointment_id", apptID).Msg("appointment vanished before handling")
			return nil
		}
		return fmt.Errorf("load appointment %d: %w", apptID, err)
	}

	patientID := row.Int64("patient_id")
	if patientID == 0 {
		patientID = payload.Int64("patientId")
	}
	doctorID := row.Int64("doctor_id")
	if doctorID == 0 {
		doctorID = payload.Int64("doctorId")
	}
	procType := row.String("type")
	if procType == "" {
		procType = payload.String("type")
	}
	if procType == "" {
		procType = "CONSULTATION"
	}

	// The schema says operatory_id; older payloads still send operatoryRoomId.
	roomID := row.Int64("operatory_id")
	if roomID == 0 {
		roomID = payload.Int64("operatoryId")
	}
	if roomID == 0 {
		roomID = payload.Int64("operatoryRoomId")
	}

	start := rowStart(row)
	if start == nil {
		start = ParseDateTime(payload.Value("appointmentDateTime"))
	}
	if start == nil {
		start = CombineDateTime(payload.Value("scheduledDate"), payload.Value("scheduledTime"))
	}

	durationMin := a.PredictDuration(ctx, procType)

	var end *time.Time
	if start != nil {
		e := start.Add(time.Duration(durationMin) * time.Minute)
		end = &e

		if err := a.store.UpdatePredictedFields(ctx, apptID, durationMin, e.Format("15:04:05")); err != nil {
			log.Warn().Err(err).Int64("appointment_id", apptID).Msg("predicted fields not persisted")
		}
	}

	var conflicts []Conflict
	if start != nil && end != nil && doctorID != 0 {
		conflicts = a.DetectConflicts(ctx, apptID, doctorID, *start, *end, roomID)
	}

	a.recordAudit(ctx, apptID, "CREATED", map[string]any{
		"source":                 "appointment_agent",
		"predicted_duration_min": durationMin,
		"conflicts":              conflicts,
	})

	// Side effects go out after the store work so a failure above emits
	// nothing.
	if len(conflicts) > 0 && doctorID != 0 {
		a.notifyBestEffort(ctx, notify.Notification{
			UserID:       doctorID,
			Title:        "Appointment Conflict Detected",
			Message:      fmt.Sprintf("Appointment #%d overlaps with existing booking(s). Please review.", apptID),
			Type:         notify.TypeConflict,
			RelatedTable: "appointments",
			RelatedID:    apptID,
			Meta:         map[string]any{"conflicts": conflicts},
		})
	}

	if start != nil && patientID != 0 {
		a.scheduleReminders(ctx, apptID, patientID, doctorID, procType, *start)
	}

	return nil
}

// scheduleReminders queues a reminder to the patient, and an upcoming-appointment
// notice to the doctor, for each configured lead time that still lies in the
// future.
func (a *Agent) scheduleReminders(ctx context.Context, apptID, patientID, doctorID int64, procType string, start time.Time) {
	now := a.now()
	pretty := start.Format(prettyTimeLayout)

	for _, lead := range a.rules.ReminderLeads {
		when := start.Add(-lead.Before)
		if !when.After(now) {
			continue
		}
		at := when

		a.notifyBestEffort(ctx, notify.Notification{
			UserID:       patientID,
			Title:        fmt.Sprintf("Appointment Reminder (%s)", lead.Label),
			Message:      fmt.Sprintf("Your appointment is scheduled at %s.", pretty),
			Type:         notify.TypeReminder,
			RelatedTable: "appointments",
			RelatedID:    apptID,
			ScheduledAt:  &at,
		})

		if doctorID != 0 {
			a.notifyBestEffort(ctx, notify.Notification{
				UserID:       doctorID,
				Title:        fmt.Sprintf("Upcoming Appointment (%s)", lead.Label),
				Message:      fmt.Sprintf("Patient appointment at %s (Type: %s).", pretty, procType),
				Type:         notify.TypeReminder,
				RelatedTable: "appointments",
				RelatedID:    apptID,
				ScheduledAt:  &at,
			})
		}
	}
}
