package agent

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/clinicops/appointment-agent/internal/store"
)

// recordAudit appends one audit row if the deployment has an audit table.
// Failures never reach the caller.
func (a *Agent) recordAudit(ctx context.Context, appointmentID int64, action string, meta map[string]any) {
	data, err := json.Marshal(meta)
	if err != nil {
		a.log.Warn().Err(err).Str("action", action).Msg("audit meta not serializable")
		data = []byte("{}")
	}

	if err := a.store.InsertAudit(ctx, appointmentID, action, data); err != nil {
		if errors.Is(err, store.ErrTableAbsent) {
			return
		}
		a.log.Warn().Err(err).
			Int64("appointment_id", appointmentID).
			Str("action", action).
			Msg("audit write dropped")
	}
}
