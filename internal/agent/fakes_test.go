package agent

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicops/appointment-agent/internal/config"
	"github.com/clinicops/appointment-agent/internal/notify"
	"github.com/clinicops/appointment-agent/internal/store"
)

type predUpdate struct {
	id       int64
	duration int
	endOfDay string
}

type createdVisit struct {
	appointmentID int64
	patientID     int64
	doctorID      int64
	linkedCaseID  *int64
}

type seededProc struct {
	visitID   int64
	procType  string
	predicted int
}

type auditEntry struct {
	appointmentID int64
	action        string
	meta          []byte
}

type fakeStore struct {
	appointments map[int64]store.Row
	byDoctor     []store.Row
	byRoom       []store.Row
	scheduled    []store.Row
	history      map[string][]int

	getErr        error
	listDoctorErr error
	listRoomErr   error
	listSchedErr  error
	historyErr    error
	predErr       error
	noShowErr     error
	visitErr      error
	createErr     error
	procsErr      error
	seedErr       error
	auditErr      error

	visitID  int64
	hasProcs bool

	predUpdates   []predUpdate
	noShows       []int64
	createdVisits []createdVisit
	seeded        []seededProc
	audits        []auditEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		appointments: make(map[int64]store.Row),
		history:      make(map[string][]int),
	}
}

func (f *fakeStore) GetAppointment(_ context.Context, id int64) (store.Row, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	row, ok := f.appointments[id]
	if !ok {
		return nil, store.ErrAppointmentNotFound
	}
	return row, nil
}

func (f *fakeStore) ListActiveByDoctor(_ context.Context, _, _ int64) ([]store.Row, error) {
	return f.byDoctor, f.listDoctorErr
}

func (f *fakeStore) ListActiveByRoom(_ context.Context, _, _ int64) ([]store.Row, error) {
	return f.byRoom, f.listRoomErr
}

func (f *fakeStore) ListScheduledOn(_ context.Context, _ time.Time) ([]store.Row, error) {
	return f.scheduled, f.listSchedErr
}

func (f *fakeStore) UpdatePredictedFields(_ context.Context, id int64, durationMin int, endOfDay string) error {
	if f.predErr != nil {
		return f.predErr
	}
	f.predUpdates = append(f.predUpdates, predUpdate{id: id, duration: durationMin, endOfDay: endOfDay})
	return nil
}

func (f *fakeStore) MarkNoShow(_ context.Context, id int64) error {
	if f.noShowErr != nil {
		return f.noShowErr
	}
	f.noShows = append(f.noShows, id)
	return nil
}

func (f *fakeStore) HistoricalDurations(_ context.Context, procType string) ([]int, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history[procType], nil
}

func (f *fakeStore) VisitForAppointment(_ context.Context, _ int64) (int64, error) {
	if f.visitErr != nil {
		return 0, f.visitErr
	}
	return f.visitID, nil
}

func (f *fakeStore) CreateVisit(_ context.Context, appointmentID, patientID, doctorID int64, linkedCaseID *int64) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.createdVisits = append(f.createdVisits, createdVisit{
		appointmentID: appointmentID,
		patientID:     patientID,
		doctorID:      doctorID,
		linkedCaseID:  linkedCaseID,
	})
	return 777, nil
}

func (f *fakeStore) VisitHasProcedures(_ context.Context, _ int64) (bool, error) {
	if f.procsErr != nil {
		return false, f.procsErr
	}
	return f.hasProcs, nil
}

func (f *fakeStore) InsertSeedProcedure(_ context.Context, visitID int64, procType string, predictedMin int) error {
	if f.seedErr != nil {
		return f.seedErr
	}
	f.seeded = append(f.seeded, seededProc{visitID: visitID, procType: procType, predicted: predictedMin})
	return nil
}

func (f *fakeStore) InsertAudit(_ context.Context, appointmentID int64, action string, meta []byte) error {
	if f.auditErr != nil {
		return f.auditErr
	}
	f.audits = append(f.audits, auditEntry{appointmentID: appointmentID, action: action, meta: meta})
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
	err  error
}

func (f *fakeNotifier) Create(_ context.Context, n notify.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeNotifier) ofType(t string) []notify.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []notify.Notification
	for _, n := range f.sent {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

type fakeMarker struct {
	seen  map[string]bool
	err   error
	calls int
}

func newFakeMarker() *fakeMarker {
	return &fakeMarker{seen: make(map[string]bool)}
}

func (f *fakeMarker) FirstAlert(_ context.Context, kind string, appointmentID int64) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	key := kind + "/" + strconv.FormatInt(appointmentID, 10)
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

// newTestAgent wires an agent over fakes with a fixed clock.
func newTestAgent(st *fakeStore, notifier *fakeNotifier, marker *fakeMarker, now time.Time) *Agent {
	a := New(st, notifier, marker, config.DefaultRules(), zerolog.Nop())
	a.now = func() time.Time { return now }
	return a
}
