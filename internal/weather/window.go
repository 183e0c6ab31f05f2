package weather

import "time"

// DefaultWindowDays is the look-back used when neither a start date nor a day
// count is given.
const DefaultWindowDays = 7

// ResolveWindow fills in a missing end (now) and a missing start (end minus
// days, or minus DefaultWindowDays when days is not positive).
func ResolveWindow(start, end *time.Time, days int, now time.Time) (from, to time.Time) {
	to = now
	if end != nil {
		to = *end
	}

	if start != nil {
		return *start, to
	}
	if days <= 0 {
		days = DefaultWindowDays
	}
	return to.AddDate(0, 0, -days), to
}

// InWindow reports whether d lies in [from, to].
func InWindow(d, from, to time.Time) bool {
	return !d.Before(from) && !d.After(to)
}
