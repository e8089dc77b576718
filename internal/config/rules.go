package config

import "time"

// Rules carries the scheduling business constants. It is built once at process
// start and passed explicitly to the agent, never mutated afterwards.
type Rules struct {
	// DefaultDurations maps a normalized procedure type to its fallback
	// duration when too little history exists to predict from.
	DefaultDurations map[string]int

	FallbackDuration int // for procedure types not in the table
	MinDuration      int // lower clamp for history-derived predictions, minutes
	MaxDuration      int // upper clamp, minutes
	MinSamples       int // history rows required before the median is trusted

	GraceDelay  time.Duration // after scheduled start, doctor gets a delay alert
	GraceNoShow time.Duration // after scheduled start, appointment becomes NO_SHOW

	ReminderLeads []ReminderLead
}

// ReminderLead is one reminder offset ahead of the appointment start.
type ReminderLead struct {
	Before time.Duration
	Label  string
}

func DefaultRules() Rules {
	return Rules{
		DefaultDurations: map[string]int{
			"CONSULTATION": 20,
			"CHECKUP":      20,
			"SCALING":      45,
			"FILLING":      60,
			"EXTRACTION":   45,
			"ROOT_CANAL":   90,
			"IMPLANT":      120,
		},
		FallbackDuration: 30,
		MinDuration:      10,
		MaxDuration:      240,
		MinSamples:       5,
		GraceDelay:       10 * time.Minute,
		GraceNoShow:      45 * time.Minute,
		ReminderLeads: []ReminderLead{
			{Before: 24 * time.Hour, Label: "24h"},
			{Before: 2 * time.Hour, Label: "2h"},
		},
	}
}
