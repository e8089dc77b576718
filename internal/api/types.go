package api

// IngestEventRequest is the body of POST /events: one appointment lifecycle
// event to queue for the agent.
type IngestEventRequest struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type IngestEventResponse struct {
	EventID int64  `json:"event_id"`
	Status  string `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
