package agent

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicops/appointment-agent/internal/config"
	"github.com/clinicops/appointment-agent/internal/events"
	"github.com/clinicops/appointment-agent/internal/notify"
	"github.com/clinicops/appointment-agent/internal/redisclient"
	"github.com/clinicops/appointment-agent/internal/store"
)

// Agent applies the scheduling domain rules to appointment lifecycle events:
// duration prediction, double-booking detection, and the time-driven sweep
// that escalates overdue appointments. It borrows its store for the duration
// of each event; connection lifecycle belongs to the caller.
type Agent struct {
	store    store.Store
	notifier notify.Notifier
	marker   redisclient.AlertMarker
	rules    config.Rules
	log      zerolog.Logger

	// now is injectable for the sweep tests.
	now func() time.Time
}

func New(st store.Store, notifier notify.Notifier, marker redisclient.AlertMarker, rules config.Rules, log zerolog.Logger) *Agent {
	return &Agent{
		store:    st,
		notifier: notifier,
		marker:   marker,
		rules:    rules,
		log:      log,
		now:      func() time.Time { return time.Now().In(ClinicZone()) },
	}
}

// Handle routes one dispatched event. Unknown event types are logged and
// ignored; AppointmentAutoScheduleRequested is accepted but intentionally a
// no-op. An error is returned only when the primary record fetch fails —
// everything past it degrades instead of aborting.
func (a *Agent) Handle(ctx context.Context, eventType string, eventID int64, payload Payload) error {
	log := a.log.With().Str("event_type", eventType).Int64("event_id", eventID).Logger()

	switch eventType {
	case events.TypeAppointmentCreated:
		return a.handleCreated(ctx, log, payload)
	case events.TypeAppointmentCompleted:
		return a.handleCompleted(ctx, log, payload)
	case events.TypeAppointmentMonitorTick:
		return a.MonitorSweep(ctx)
	case events.TypeAppointmentAutoScheduleReq:
		return nil
	default:
		log.Debug().Msg("ignoring unknown event type")
		return nil
	}
}

// notifyBestEffort requests a notification and logs failures instead of
// surfacing them; a dropped notification never fails a business event.
func (a *Agent) notifyBestEffort(ctx context.Context, n notify.Notification) {
	if err := a.notifier.Create(ctx, n); err != nil {
		a.log.Warn().Err(err).
			Str("type", n.Type).
			Int64("user_id", n.UserID).
			Int64("related_id", n.RelatedID).
			Msg("notification dropped")
	}
}

// rowStart derives an appointment's start, preferring the combined timestamp
// column over date + start time.
func rowStart(row store.Row) *time.Time {
	if t := ParseDateTime(row.Value("appointment_datetime")); t != nil {
		return t
	}
	return CombineDateTime(row.Value("scheduled_date"), row.Value("scheduled_time"))
}

// rowEnd derives an appointment's end, preferring the explicit end time over
// start plus the predicted (or default) duration.
func rowEnd(row store.Row, start *time.Time, durationMin int) *time.Time {
	if start == nil {
		return nil
	}
	if end := CombineDateTime(row.Value("scheduled_date"), row.Value("scheduled_end_time")); end != nil {
		return end
	}
	end := start.Add(time.Duration(durationMin) * time.Minute)
	return &end
}
