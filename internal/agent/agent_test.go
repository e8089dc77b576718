package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleIgnoresUnknownAndStubEvents(t *testing.T) {
	st := newFakeStore()
	n := &fakeNotifier{}
	a := newTestAgent(st, n, newFakeMarker(), at(9, 0))

	require.NoError(t, a.Handle(context.Background(), "AppointmentAutoScheduleRequested", 1, Payload{}))
	require.NoError(t, a.Handle(context.Background(), "SomethingElseEntirely", 2, Payload{}))

	assert.Empty(t, n.sent)
	assert.Empty(t, st.audits)
}

func TestPayloadAccessors(t *testing.T) {
	p := Payload{
		"appointmentId": float64(42),
		"doctorId":      "17",
		"patientId":     int64(3),
		"type":          "  filling ",
		"junk":          []string{"x"},
	}

	assert.Equal(t, int64(42), p.Int64("appointmentId"))
	assert.Equal(t, int64(17), p.Int64("doctorId"))
	assert.Equal(t, int64(3), p.Int64("patientId"))
	assert.Equal(t, int64(0), p.Int64("missing"))
	assert.Equal(t, int64(0), p.Int64("junk"))
	assert.Equal(t, "filling", p.String("type"))
	assert.Equal(t, "", p.String("missing"))
}
