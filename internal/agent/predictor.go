package agent

import (
	"context"
	"errors"
	"sort"

	"github.com/clinicops/appointment-agent/internal/store"
)

// PredictDuration estimates how long a procedure will take, in minutes. With
// enough history (Rules.MinSamples positive actual durations) it returns the
// median clamped to [Rules.MinDuration, Rules.MaxDuration]; otherwise the
// static default for the type, or Rules.FallbackDuration for unlisted types.
// Storage failures count as insufficient data — prediction never aborts the
// caller's workflow.
func (a *Agent) PredictDuration(ctx context.Context, procedureType string) int {
	proc := NormalizeProcedureType(procedureType)

	vals, err := a.store.HistoricalDurations(ctx, proc)
	if err != nil {
		if !errors.Is(err, store.ErrTableAbsent) {
			a.log.Debug().Err(err).Str("procedure", proc).Msg("duration history unavailable, using default")
		}
	} else if len(vals) >= a.rules.MinSamples {
		sort.Ints(vals)
		mid := len(vals) / 2
		var median int
		if len(vals)%2 == 1 {
			median = vals[mid]
		} else {
			median = (vals[mid-1] + vals[mid]) / 2
		}
		return clamp(median, a.rules.MinDuration, a.rules.MaxDuration)
	}

	if d, ok := a.rules.DefaultDurations[proc]; ok {
		return d
	}
	return a.rules.FallbackDuration
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
