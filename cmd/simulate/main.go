package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// simulate fires synthetic lifecycle events at a running agent-worker's
// ingestion endpoint: a burst of AppointmentCreated, a few completions, and
// a monitor tick, so the whole pipeline can be watched end to end.

type event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

func main() {
	baseURL := flag.String("url", "http://127.0.0.1:8080", "agent-worker base URL")
	created := flag.Int("created", 20, "AppointmentCreated events to send")
	completed := flag.Int("completed", 5, "AppointmentCompleted events to send")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	gofakeit.Seed(time.Now().UnixNano())

	client := &http.Client{Timeout: 5 * time.Second}
	run := uuid.NewString()[:8]
	log.Info().Str("run", run).Str("url", *baseURL).Msg("simulation starting")

	types := []string{"CONSULTATION", "FILLING", "ROOT CANAL", "scaling", "check-up"}

	sent := 0
	for i := 0; i < *created; i++ {
		start := time.Now().Add(time.Duration(gofakeit.Number(1, 72)) * time.Hour).Truncate(15 * time.Minute)
		ev := event{
			Type: "AppointmentCreated",
			Payload: map[string]any{
				"appointmentId":       gofakeit.Number(1, 200),
				"patientId":           gofakeit.Number(1, 500),
				"doctorId":            gofakeit.Number(1, 20),
				"type":                types[gofakeit.Number(0, len(types)-1)],
				"appointmentDateTime": start.Format("2006-01-02 15:04:05"),
			},
		}
		if postEvent(log, client, *baseURL, ev) {
			sent++
		}
	}

	for i := 0; i < *completed; i++ {
		ev := event{
			Type: "AppointmentCompleted",
			Payload: map[string]any{
				"appointmentId": gofakeit.Number(1, 200),
			},
		}
		if postEvent(log, client, *baseURL, ev) {
			sent++
		}
	}

	if postEvent(log, client, *baseURL, event{Type: "AppointmentMonitorTick", Payload: map[string]any{}}) {
		sent++
	}

	log.Info().Int("sent", sent).Msg("simulation complete")
}

func postEvent(log zerolog.Logger, client *http.Client, baseURL string, ev event) bool {
	body, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("marshal event")
		return false
	}

	resp, err := client.Post(fmt.Sprintf("%s/events", baseURL), "application/json", bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Str("type", ev.Type).Msg("post event")
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusAccepted {
		log.Warn().Int("status", resp.StatusCode).Str("type", ev.Type).Msg("event rejected")
		return false
	}
	return true
}
