package events

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKnown(t *testing.T) {
	assert.True(t, Known(TypeAppointmentCreated))
	assert.True(t, Known(TypeAppointmentCompleted))
	assert.True(t, Known(TypeAppointmentMonitorTick))
	assert.True(t, Known(TypeAppointmentAutoScheduleReq))
	assert.False(t, Known("AppointmentRescheduled"))
	assert.False(t, Known(""))
}

func TestEnqueueMarshalsPayload(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO agent_events").
		WithArgs(TypeAppointmentCreated, []byte(`{"appointmentId":42}`)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(17)))

	q := newQueueWithQuerier(mock)
	id, err := q.Enqueue(context.Background(), TypeAppointmentCreated,
		map[string]any{"appointmentId": 42})
	require.NoError(t, err)
	assert.Equal(t, int64(17), id)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchPendingOrdersByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	created := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("WHERE processed_at IS NULL").
		WithArgs(50).
		WillReturnRows(pgxmock.NewRows([]string{"id", "event_type", "payload", "created_at"}).
			AddRow(int64(1), TypeAppointmentCreated, []byte(`{"appointmentId":42}`), created).
			AddRow(int64(2), TypeAppointmentMonitorTick, []byte(`{}`), created))

	q := newQueueWithQuerier(mock)
	evs, err := q.FetchPending(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, int64(1), evs[0].ID)
	assert.Equal(t, TypeAppointmentCreated, evs[0].Type)
	assert.JSONEq(t, `{"appointmentId":42}`, string(evs[0].Payload))
	assert.Equal(t, TypeAppointmentMonitorTick, evs[1].Type)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkProcessed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("SET processed_at = now").
		WithArgs(int64(17)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	q := newQueueWithQuerier(mock)
	require.NoError(t, q.MarkProcessed(context.Background(), 17))
	require.NoError(t, mock.ExpectationsWereMet())
}
