package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/clinicops/appointment-agent/internal/events"
)

// EventEnqueuer is what the ingestion endpoint needs from the event queue.
type EventEnqueuer interface {
	Enqueue(ctx context.Context, eventType string, payload any) (int64, error)
}

func ingestEventHandler(queue EventEnqueuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req IngestEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if !events.Known(req.Type) {
			writeError(w, http.StatusBadRequest, "unknown_event_type", "type must be an appointment lifecycle event")
			return
		}

		if req.Payload == nil {
			req.Payload = map[string]any{}
		}

		id, err := queue.Enqueue(r.Context(), req.Type, req.Payload)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "enqueue_failed", err.Error())
			return
		}

		writeJSON(w, http.StatusAccepted, IngestEventResponse{
			EventID: id,
			Status:  "queued",
		})
	}
}
