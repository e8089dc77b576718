package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Event type names accepted by the agent.
const (
	TypeAppointmentCreated         = "AppointmentCreated"
	TypeAppointmentCompleted       = "AppointmentCompleted"
	TypeAppointmentMonitorTick     = "AppointmentMonitorTick"
	TypeAppointmentAutoScheduleReq = "AppointmentAutoScheduleRequested"
)

// Known reports whether the event type is one the agent understands.
func Known(eventType string) bool {
	switch eventType {
	case TypeAppointmentCreated, TypeAppointmentCompleted,
		TypeAppointmentMonitorTick, TypeAppointmentAutoScheduleReq:
		return true
	default:
		return false
	}
}

// Event is one row of the agent_events queue.
type Event struct {
	ID        int64
	Type      string
	Payload   json.RawMessage
	CreatedAt time.Time
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queue is the Postgres-backed event queue the worker drains. The booking
// flow (or the ingestion endpoint) enqueues; the worker fetches in id order
// and marks rows processed.
type Queue struct {
	db querier
}

func NewQueue(pool *pgxpool.Pool) *Queue {
	if pool == nil {
		panic("events: pgx pool required")
	}
	return &Queue{db: pool}
}

func newQueueWithQuerier(db querier) *Queue {
	return &Queue{db: db}
}

func (q *Queue) Enqueue(ctx context.Context, eventType string, payload any) (int64, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("events: marshal payload: %w", err)
	}

	var id int64
	err = q.db.QueryRow(ctx, `
		INSERT INTO agent_events (event_type, payload, created_at)
		VALUES ($1, $2, now())
		RETURNING id`,
		eventType, data).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("events: enqueue: %w", err)
	}
	return id, nil
}

func (q *Queue) FetchPending(ctx context.Context, limit int) ([]Event, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, event_type, payload, created_at
		FROM agent_events
		WHERE processed_at IS NULL
		ORDER BY id
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("events: fetch pending: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		var payload []byte
		if err := rows.Scan(&ev.ID, &ev.Type, &payload, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("events: scan: %w", err)
		}
		ev.Payload = append([]byte(nil), payload...)
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (q *Queue) MarkProcessed(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, `
		UPDATE agent_events
		SET processed_at = now()
		WHERE id = $1 AND processed_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("events: mark processed: %w", err)
	}
	return nil
}
