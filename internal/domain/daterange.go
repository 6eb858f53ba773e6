package domain

import (
	"math"
	"time"
)

const DateLayout = "2006-01-02"

// DateRange is the half-open calendar interval [Start, End) an order books.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// AllDates spans every calendar date an order can carry.
var AllDates = DateRange{
	Start: time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC),
}

// NewDateRange truncates both ends to UTC calendar dates.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: TruncateDate(start), End: TruncateDate(end)}
}

// ParseDateRange parses two yyyy-mm-dd strings.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return DateRange{}, Validation("invalid start date %q, expected yyyy-mm-dd", start)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return DateRange{}, Validation("invalid end date %q, expected yyyy-mm-dd", end)
	}
	return DateRange{Start: s, End: e}, nil
}

// TruncateDate drops the clock part of t in UTC.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Overlaps reports whether the two half-open ranges intersect at all.
// Back-to-back ranges (one ends the day the other starts) do not overlap.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

const secondsPerDay = 24 * 60 * 60

// Days is the number of whole calendar days in the range. It works on Unix
// seconds, not time.Duration, so ranges longer than ~292 years count exactly.
func (r DateRange) Days() int64 {
	return dayNumber(r.End) - dayNumber(r.Start)
}

// dayNumber is the count of days since 1970-01-01 for t's UTC date.
func dayNumber(t time.Time) int64 {
	return TruncateDate(t).Unix() / secondsPerDay
}

// Validate checks ordering and that the range does not start before today.
func (r DateRange) Validate(today time.Time) error {
	if r.Start.Before(TruncateDate(today)) {
		return Validation("start date cannot be in the past")
	}
	if !r.End.After(r.Start) {
		return Validation("end date must be after start date")
	}
	return nil
}

// TotalCents is dailyPriceCents times the whole days in the range. A total
// that does not fit in int64 is a validation error.
func (r DateRange) TotalCents(dailyPriceCents int64) (int64, error) {
	days := r.Days()
	if dailyPriceCents < 0 || days < 0 {
		return 0, Validation("price and rental period must not be negative")
	}
	if days != 0 && dailyPriceCents > math.MaxInt64/days {
		return 0, Validation("rental total exceeds the maximum amount; choose a shorter period")
	}
	return dailyPriceCents * days, nil
}
