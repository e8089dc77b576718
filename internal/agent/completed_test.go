package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicops/appointment-agent/internal/notify"
	"github.com/clinicops/appointment-agent/internal/store"
)

func completedAppointment() store.Row {
	return store.Row{
		"id":         int64(5),
		"patient_id": int64(10),
		"doctor_id":  int64(20),
		"type":       "FILLING",
		"status":     "COMPLETED",
	}
}

func TestCompletedReusesExistingVisit(t *testing.T) {
	st := newFakeStore()
	st.appointments[5] = completedAppointment()
	st.visitID = 31
	st.hasProcs = true
	n := &fakeNotifier{}
	a := newTestAgent(st, n, newFakeMarker(), at(12, 0))

	err := a.Handle(context.Background(), "AppointmentCompleted", 1, Payload{"appointmentId": float64(5)})
	require.NoError(t, err)

	assert.Empty(t, st.createdVisits)
	assert.Empty(t, st.seeded)

	require.Len(t, st.audits, 1)
	assert.Equal(t, "COMPLETED", st.audits[0].action)

	done := n.ofType(notify.TypeCompleted)
	require.Len(t, done, 1)
	assert.Equal(t, int64(10), done[0].UserID)
}

func TestCompletedCreatesVisitAndSeedsProcedure(t *testing.T) {
	st := newFakeStore()
	st.appointments[5] = completedAppointment()
	st.visitErr = store.ErrVisitNotFound
	n := &fakeNotifier{}
	a := newTestAgent(st, n, newFakeMarker(), at(12, 0))

	payload := Payload{"appointmentId": float64(5), "linkedCaseId": float64(88)}
	require.NoError(t, a.Handle(context.Background(), "AppointmentCompleted", 1, payload))

	require.Len(t, st.createdVisits, 1)
	cv := st.createdVisits[0]
	assert.Equal(t, int64(5), cv.appointmentID)
	assert.Equal(t, int64(10), cv.patientID)
	assert.Equal(t, int64(20), cv.doctorID)
	require.NotNil(t, cv.linkedCaseID)
	assert.Equal(t, int64(88), *cv.linkedCaseID)

	require.Len(t, st.seeded, 1)
	assert.Equal(t, int64(777), st.seeded[0].visitID)
	assert.Equal(t, "FILLING", st.seeded[0].procType)
	assert.Equal(t, 60, st.seeded[0].predicted)
}

func TestCompletedLinkedCaseFallsBackToRow(t *testing.T) {
	st := newFakeStore()
	row := completedAppointment()
	row["linked_case_id"] = int64(91)
	st.appointments[5] = row
	st.visitErr = store.ErrVisitNotFound
	a := newTestAgent(st, &fakeNotifier{}, newFakeMarker(), at(12, 0))

	require.NoError(t, a.Handle(context.Background(), "AppointmentCompleted", 1, Payload{"appointmentId": float64(5)}))

	require.Len(t, st.createdVisits, 1)
	require.NotNil(t, st.createdVisits[0].linkedCaseID)
	assert.Equal(t, int64(91), *st.createdVisits[0].linkedCaseID)
}

func TestCompletedSkipsVisitStepsWithoutTables(t *testing.T) {
	st := newFakeStore()
	st.appointments[5] = completedAppointment()
	st.visitErr = store.ErrTableAbsent
	n := &fakeNotifier{}
	a := newTestAgent(st, n, newFakeMarker(), at(12, 0))

	require.NoError(t, a.Handle(context.Background(), "AppointmentCompleted", 1, Payload{"appointmentId": float64(5)}))

	assert.Empty(t, st.createdVisits)
	assert.Empty(t, st.seeded)
	// Audit and patient notification still happen.
	assert.Len(t, st.audits, 1)
	assert.Len(t, n.ofType(notify.TypeCompleted), 1)
}

func TestCompletedIgnoresMissingAppointment(t *testing.T) {
	st := newFakeStore()
	n := &fakeNotifier{}
	a := newTestAgent(st, n, newFakeMarker(), at(12, 0))

	require.NoError(t, a.Handle(context.Background(), "AppointmentCompleted", 1, Payload{"appointmentId": float64(5)}))
	assert.Empty(t, n.sent)
	assert.Empty(t, st.audits)
}
