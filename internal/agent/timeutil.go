package agent

import (
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// The appointment book runs on clinic wall-clock time (IST). Hosts without a
// tz database get a fixed-offset substitute with identical behavior.
var clinicZone = loadClinicZone()

func loadClinicZone() *time.Location {
	if loc, err := time.LoadLocation("Asia/Kolkata"); err == nil {
		return loc
	}
	return time.FixedZone("IST", 5*3600+30*60)
}

// ClinicZone returns the canonical timezone for all schedule arithmetic.
func ClinicZone() *time.Location {
	return clinicZone
}

const (
	dateLayout    = "2006-01-02"
	dateTimeSpace = "2006-01-02 15:04:05"
	dateTimeT     = "2006-01-02T15:04:05"
)

// ParseDateTime interprets a timestamp value from a database row or event
// payload. time.Time values without a real zone (plain `timestamp` columns
// surface as UTC wall clock) are re-anchored in the clinic zone; strings are
// accepted in `YYYY-MM-DD HH:MM:SS` and `YYYY-MM-DDTHH:MM:SS` form. Returns
// nil for empty or unparseable input, never an error.
func ParseDateTime(v any) *time.Time {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		if t.IsZero() {
			return nil
		}
		if t.Location() == time.UTC {
			anchored := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), clinicZone)
			return &anchored
		}
		in := t.In(clinicZone)
		return &in
	case *time.Time:
		if t == nil {
			return nil
		}
		return ParseDateTime(*t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		for _, layout := range []string{dateTimeSpace, dateTimeT} {
			if parsed, err := time.ParseInLocation(layout, s, clinicZone); err == nil {
				return &parsed
			}
		}
		return nil
	default:
		return nil
	}
}

// CombineDateTime builds a zoned timestamp from separate date and time-of-day
// values, as stored in the scheduled_date / scheduled_time columns. Either
// side may be a string, a time.Time, or (for the time part) a pgtype.Time.
// Returns nil if either part is missing or unparseable.
func CombineDateTime(date, tod any) *time.Time {
	ds := dateString(date)
	ts := timeOfDayString(tod)
	if ds == "" || ts == "" {
		return nil
	}

	for _, layout := range []string{dateTimeSpace, "2006-01-02 15:04"} {
		if parsed, err := time.ParseInLocation(layout, ds+" "+ts, clinicZone); err == nil {
			return &parsed
		}
	}
	return nil
}

func dateString(v any) string {
	switch d := v.(type) {
	case time.Time:
		if d.IsZero() {
			return ""
		}
		return d.Format(dateLayout)
	case string:
		return strings.TrimSpace(d)
	default:
		return ""
	}
}

func timeOfDayString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format("15:04:05")
	case pgtype.Time:
		if !t.Valid {
			return ""
		}
		return time.UnixMicro(t.Microseconds).UTC().Format("15:04:05")
	default:
		return ""
	}
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
