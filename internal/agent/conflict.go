package agent

import (
	"context"
	"time"

	"github.com/clinicops/appointment-agent/internal/store"
)

type ConflictKind string

const (
	ConflictDoctor ConflictKind = "DOCTOR"
	ConflictRoom   ConflictKind = "ROOM"
)

// Conflict is one advisory finding: another active appointment whose doctor
// or room assignment overlaps the interval under review.
type Conflict struct {
	Kind              ConflictKind `json:"kind"`
	WithAppointmentID int64        `json:"with_appointment_id"`
	At                time.Time    `json:"at"`
	Status            string       `json:"status"`
}

// DetectConflicts scans other active appointments of the same doctor — and of
// the same room, when one is assigned and the schema tracks rooms — for
// interval overlap with [start, end). Findings are advisory: they feed audit
// entries and notifications, never block the appointment. A failed scan is
// logged and yields no findings.
func (a *Agent) DetectConflicts(ctx context.Context, appointmentID, doctorID int64, start, end time.Time, roomID int64) []Conflict {
	var conflicts []Conflict

	rows, err := a.store.ListActiveByDoctor(ctx, doctorID, appointmentID)
	if err != nil {
		a.log.Warn().Err(err).Int64("doctor_id", doctorID).Msg("doctor conflict scan failed")
	} else {
		conflicts = append(conflicts, a.scanOverlaps(rows, ConflictDoctor, start, end)...)
	}

	if roomID > 0 {
		rows, err := a.store.ListActiveByRoom(ctx, roomID, appointmentID)
		if err != nil {
			a.log.Warn().Err(err).Int64("room_id", roomID).Msg("room conflict scan failed")
		} else {
			conflicts = append(conflicts, a.scanOverlaps(rows, ConflictRoom, start, end)...)
		}
	}

	return conflicts
}

func (a *Agent) scanOverlaps(rows []store.Row, kind ConflictKind, start, end time.Time) []Conflict {
	var found []Conflict
	for _, row := range rows {
		other := rowStart(row)
		if other == nil {
			continue
		}

		dur := int(row.Int64("predicted_duration_min"))
		if dur <= 0 {
			dur = a.rules.FallbackDuration
		}
		otherEnd := rowEnd(row, other, dur)
		if otherEnd == nil {
			continue
		}

		if Overlaps(start, end, *other, *otherEnd) {
			found = append(found, Conflict{
				Kind:              kind,
				WithAppointmentID: row.Int64("id"),
				At:                *other,
				Status:            row.Status(),
			})
		}
	}
	return found
}
