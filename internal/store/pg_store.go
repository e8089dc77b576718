package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicops/appointment-agent/internal/schema"
)

// PgStore implements Store over Postgres, asking the schema inspector which
// optional tables and columns this deployment actually has.
type PgStore struct {
	db        schema.Querier
	inspector *schema.Inspector
}

func NewPgStore(pool *pgxpool.Pool, inspector *schema.Inspector) *PgStore {
	if pool == nil {
		panic("store: pgx pool required")
	}
	return &PgStore{db: pool, inspector: inspector}
}

func newPgStoreWithQuerier(db schema.Querier, inspector *schema.Inspector) *PgStore {
	return &PgStore{db: db, inspector: inspector}
}

const activeStatusFilter = `status NOT IN ('CANCELLED','COMPLETED','NO_SHOW')`

func (s *PgStore) GetAppointment(ctx context.Context, id int64) (Row, error) {
	rows, err := s.db.Query(ctx, `SELECT * FROM appointments WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}

	result, err := collectRows(rows)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if len(result) == 0 {
		return nil, ErrAppointmentNotFound
	}
	return result[0], nil
}

func (s *PgStore) ListActiveByDoctor(ctx context.Context, doctorID, excludeID int64) ([]Row, error) {
	rows, err := s.db.Query(ctx, `
		SELECT * FROM appointments
		WHERE doctor_id = $1 AND id <> $2 AND `+activeStatusFilter,
		doctorID, excludeID)
	if err != nil {
		return nil, fmt.Errorf("list by doctor: %w", err)
	}
	return collectRows(rows)
}

func (s *PgStore) ListActiveByRoom(ctx context.Context, roomID, excludeID int64) ([]Row, error) {
	col, err := s.inspector.FirstColumn(ctx, "appointments", "operatory_id", "operatory_room_id")
	if err != nil {
		return nil, fmt.Errorf("list by room: %w", err)
	}
	if col == "" {
		return nil, nil
	}

	rows, err := s.db.Query(ctx, fmt.Sprintf(`
		SELECT * FROM appointments
		WHERE %s = $1 AND id <> $2 AND %s`, col, activeStatusFilter),
		roomID, excludeID)
	if err != nil {
		return nil, fmt.Errorf("list by room: %w", err)
	}
	return collectRows(rows)
}

func (s *PgStore) ListScheduledOn(ctx context.Context, day time.Time) ([]Row, error) {
	rows, err := s.db.Query(ctx,
		`SELECT * FROM appointments WHERE scheduled_date = $1`,
		day.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("list scheduled: %w", err)
	}
	return collectRows(rows)
}

func (s *PgStore) UpdatePredictedFields(ctx context.Context, id int64, durationMin int, endOfDay string) error {
	hasPred, err := s.inspector.ColumnExists(ctx, "appointments", "predicted_duration_min")
	if err != nil {
		return fmt.Errorf("update predicted: %w", err)
	}
	hasEnd, err := s.inspector.ColumnExists(ctx, "appointments", "scheduled_end_time")
	if err != nil {
		return fmt.Errorf("update predicted: %w", err)
	}

	var sets []string
	var args []any
	if hasPred {
		args = append(args, durationMin)
		sets = append(sets, fmt.Sprintf("predicted_duration_min = $%d", len(args)))
	}
	if hasEnd && endOfDay != "" {
		args = append(args, endOfDay)
		sets = append(sets, fmt.Sprintf("scheduled_end_time = $%d", len(args)))
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE appointments SET %s, updated_at = now() WHERE id = $%d",
		strings.Join(sets, ", "), len(args))

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update predicted: %w", err)
	}
	return nil
}

func (s *PgStore) MarkNoShow(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx,
		`UPDATE appointments SET status = 'NO_SHOW', updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark no-show: %w", err)
	}
	return nil
}

func (s *PgStore) HistoricalDurations(ctx context.Context, procType string) ([]int, error) {
	ok, err := s.inspector.TableExists(ctx, "visit_procedures")
	if err != nil {
		return nil, fmt.Errorf("historical durations: %w", err)
	}
	if !ok {
		return nil, ErrTableAbsent
	}

	// Newer schemas renamed procedure_type to procedure_code.
	col, err := s.inspector.FirstColumn(ctx, "visit_procedures", "procedure_code", "procedure_type")
	if err != nil {
		return nil, fmt.Errorf("historical durations: %w", err)
	}
	if col == "" {
		col = "procedure_type"
	}

	rows, err := s.db.Query(ctx, fmt.Sprintf(`
		SELECT actual_duration_min
		FROM visit_procedures
		WHERE %s = $1
		  AND actual_duration_min IS NOT NULL
		  AND actual_duration_min > 0
		ORDER BY actual_duration_min`, col),
		procType)
	if err != nil {
		return nil, fmt.Errorf("historical durations: %w", err)
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("historical durations: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *PgStore) VisitForAppointment(ctx context.Context, appointmentID int64) (int64, error) {
	ok, err := s.inspector.TableExists(ctx, "visits")
	if err != nil {
		return 0, fmt.Errorf("visit lookup: %w", err)
	}
	if !ok {
		return 0, ErrTableAbsent
	}

	var id int64
	err = s.db.QueryRow(ctx,
		`SELECT id FROM visits WHERE appointment_id = $1 LIMIT 1`, appointmentID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrVisitNotFound
		}
		return 0, fmt.Errorf("visit lookup: %w", err)
	}
	return id, nil
}

func (s *PgStore) CreateVisit(ctx context.Context, appointmentID, patientID, doctorID int64, linkedCaseID *int64) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO visits (appointment_id, patient_id, doctor_id, linked_case_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'OPEN', now(), now())
		RETURNING id`,
		appointmentID, patientID, doctorID, linkedCaseID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create visit: %w", err)
	}
	return id, nil
}

func (s *PgStore) VisitHasProcedures(ctx context.Context, visitID int64) (bool, error) {
	ok, err := s.inspector.TableExists(ctx, "visit_procedures")
	if err != nil {
		return false, fmt.Errorf("visit procedures: %w", err)
	}
	if !ok {
		return false, ErrTableAbsent
	}

	var one int
	err = s.db.QueryRow(ctx,
		`SELECT 1 FROM visit_procedures WHERE visit_id = $1 LIMIT 1`, visitID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("visit procedures: %w", err)
	}
	return true, nil
}

func (s *PgStore) InsertSeedProcedure(ctx context.Context, visitID int64, procType string, predictedMin int) error {
	col, err := s.inspector.FirstColumn(ctx, "visit_procedures", "procedure_code", "procedure_type")
	if err != nil {
		return fmt.Errorf("seed procedure: %w", err)
	}
	if col == "" {
		col = "procedure_code"
	}

	_, err = s.db.Exec(ctx, fmt.Sprintf(`
		INSERT INTO visit_procedures (visit_id, %s, qty, predicted_duration_min, created_at)
		VALUES ($1, $2, 1, $3, now())`, col),
		visitID, procType, predictedMin)
	if err != nil {
		return fmt.Errorf("seed procedure: %w", err)
	}
	return nil
}

func (s *PgStore) InsertAudit(ctx context.Context, appointmentID int64, action string, meta []byte) error {
	ok, err := s.inspector.TableExists(ctx, "appointment_audit_logs")
	if err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}
	if !ok {
		return ErrTableAbsent
	}

	if len(action) > 50 {
		action = action[:50]
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO appointment_audit_logs (appointment_id, action, meta_json, created_at)
		VALUES ($1, $2, $3, now())`,
		appointmentID, action, meta)
	if err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}
	return nil
}
