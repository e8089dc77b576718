package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AlertMarker remembers which appointments already triggered a given alert so
// the monitor sweep does not re-send the same notification on every tick.
type AlertMarker interface {
	// FirstAlert reports whether this is the first time the (kind, appointment)
	// pair is seen. The caller should only emit the alert when it returns true.
	FirstAlert(ctx context.Context, kind string, appointmentID int64) (bool, error)
}

type redisAlertMarker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisAlertMarker creates a marker keyed per alert kind and appointment.
// Keys expire after ttl, so a stuck appointment can alert again the next day.
func NewRedisAlertMarker(client *redis.Client, ttl time.Duration) AlertMarker {
	return &redisAlertMarker{
		client: client,
		ttl:    ttl,
	}
}

func (m *redisAlertMarker) FirstAlert(ctx context.Context, kind string, appointmentID int64) (bool, error) {
	key := fmt.Sprintf("alert:%s:%d", kind, appointmentID)

	ok, err := m.client.SetNX(ctx, key, "1", m.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark alert: %w", err)
	}
	return ok, nil
}
