package main

import (
	"context"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/clinicops/appointment-agent/internal/db"
)

var procedureTypes = []string{
	"CONSULTATION",
	"CHECKUP",
	"SCALING",
	"FILLING",
	"EXTRACTION",
	"ROOT_CANAL",
	"IMPLANT",
}

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	log.Info().Msg("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedPeople(context.Background(), pool, "doctors", 20); err != nil {
		log.Fatal().Err(err).Msg("seed doctors")
	}
	if err := seedPeople(context.Background(), pool, "patients", 500); err != nil {
		log.Fatal().Err(err).Msg("seed patients")
	}
	if err := seedAppointments(context.Background(), pool, 200); err != nil {
		log.Fatal().Err(err).Msg("seed appointments")
	}
	if err := seedHistory(context.Background(), pool, 400); err != nil {
		log.Fatal().Err(err).Msg("seed history")
	}

	log.Info().Msg("seed complete")
}

func seedPeople(ctx context.Context, pool *pgxpool.Pool, table string, count int) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		_, err := tx.Exec(ctx, `
			INSERT INTO `+table+` (name, email, created_at, updated_at)
			VALUES ($1, $2, now(), now())
		`, gofakeit.Name(), gofakeit.Email())
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// seedAppointments spreads bookings across today and the next week so both
// the monitor sweep and the reminder scheduling have something to chew on.
func seedAppointments(ctx context.Context, pool *pgxpool.Pool, count int) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		day := time.Now().AddDate(0, 0, gofakeit.Number(0, 7))
		hour := gofakeit.Number(9, 17)
		minute := []int{0, 15, 30, 45}[gofakeit.Number(0, 3)]

		_, err := tx.Exec(ctx, `
			INSERT INTO appointments (patient_id, doctor_id, type, status, scheduled_date, scheduled_time, created_at, updated_at)
			VALUES ($1, $2, $3, 'SCHEDULED', $4, $5, now(), now())
		`,
			gofakeit.Number(1, 500),
			gofakeit.Number(1, 20),
			procedureTypes[gofakeit.Number(0, len(procedureTypes)-1)],
			day.Format("2006-01-02"),
			time.Date(0, 1, 1, hour, minute, 0, 0, time.UTC).Format("15:04:05"),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// seedHistory writes completed visit procedures with actual durations so the
// predictor has medians to work from.
func seedHistory(ctx context.Context, pool *pgxpool.Pool, count int) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		var visitID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO visits (appointment_id, patient_id, doctor_id, status, created_at, updated_at)
			VALUES ($1, $2, $3, 'CLOSED', now(), now())
			RETURNING id
		`,
			gofakeit.Number(10000, 99999),
			gofakeit.Number(1, 500),
			gofakeit.Number(1, 20),
		).Scan(&visitID)
		if err != nil {
			return err
		}

		proc := procedureTypes[gofakeit.Number(0, len(procedureTypes)-1)]
		_, err = tx.Exec(ctx, `
			INSERT INTO visit_procedures (visit_id, procedure_code, qty, actual_duration_min, predicted_duration_min, created_at)
			VALUES ($1, $2, 1, $3, $4, now())
		`, visitID, proc, gofakeit.Number(15, 150), gofakeit.Number(20, 120))
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
