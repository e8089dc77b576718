package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Notification type tags the agent emits.
const (
	TypeConflict  = "APPOINTMENT_CONFLICT"
	TypeReminder  = "APPOINTMENT_REMINDER"
	TypeDelay     = "APPOINTMENT_DELAY"
	TypeNoShow    = "APPOINTMENT_NO_SHOW"
	TypeCompleted = "APPOINTMENT_COMPLETED"
)

// Notification is a request to durably record a message for a user. Delivery
// (email, push, SMS) belongs to the notification service that owns the table;
// the agent only creates rows.
type Notification struct {
	UserID       int64
	Title        string
	Message      string
	Type         string
	RelatedTable string
	RelatedID    int64
	Meta         map[string]any
	ScheduledAt  *time.Time // nil means deliver as soon as possible
}

// Notifier schedules a notification for a user.
type Notifier interface {
	Create(ctx context.Context, n Notification) error
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgNotifier writes notifications straight into the shared notifications
// table.
type PgNotifier struct {
	db querier
}

func NewPgNotifier(pool *pgxpool.Pool) *PgNotifier {
	if pool == nil {
		panic("notify: pgx pool required")
	}
	return &PgNotifier{db: pool}
}

func newPgNotifierWithQuerier(db querier) *PgNotifier {
	return &PgNotifier{db: db}
}

func (p *PgNotifier) Create(ctx context.Context, n Notification) error {
	var meta []byte
	if len(n.Meta) > 0 {
		var err error
		meta, err = json.Marshal(n.Meta)
		if err != nil {
			return fmt.Errorf("notify: marshal meta: %w", err)
		}
	}

	_, err := p.db.Exec(ctx, `
		INSERT INTO notifications (user_id, title, message, type, related_table, related_id, meta_json, scheduled_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())`,
		n.UserID, n.Title, n.Message, n.Type, n.RelatedTable, n.RelatedID, meta, n.ScheduledAt)
	if err != nil {
		return fmt.Errorf("notify: create: %w", err)
	}
	return nil
}
