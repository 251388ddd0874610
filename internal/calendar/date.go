package calendar

import "time"

// maxDateRangeDays caps how many days a single resolution may expand.
const maxDateRangeDays = 366

// DateRange is an inclusive range of calendar dates. Dates are carried as
// midnight UTC values; the calendar day is what matters, not the instant.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Date truncates a calendar day to its canonical midnight-UTC form.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf returns the calendar date of t as observed in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return Date(y, m, d)
}

// NewDateRange normalizes both bounds to dates and validates From <= To.
func NewDateRange(from, to time.Time) (DateRange, error) {
	if from.IsZero() || to.IsZero() {
		return DateRange{}, ErrInvalidDateRange
	}
	dr := DateRange{From: DateOf(from, from.Location()), To: DateOf(to, to.Location())}
	if dr.To.Before(dr.From) {
		return DateRange{}, ErrInvalidDateRange
	}
	if len(dr.Days()) > maxDateRangeDays {
		return DateRange{}, ErrInvalidDateRange
	}
	return dr, nil
}

// Covering returns the dates in loc touched by the half-open range tr.
func Covering(tr TimeRange, loc *time.Location) DateRange {
	last := tr.End.Add(-time.Nanosecond)
	if last.Before(tr.Start) {
		last = tr.Start
	}
	return DateRange{From: DateOf(tr.Start, loc), To: DateOf(last, loc)}
}

// Days lists every date in the range in ascending order.
func (dr DateRange) Days() []time.Time {
	var days []time.Time
	for d := dr.From; !d.After(dr.To); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
		if len(days) > maxDateRangeDays {
			break
		}
	}
	return days
}

// Contains reports whether the calendar date of d lies in the range.
func (dr DateRange) Contains(d time.Time) bool {
	day := Date(d.Date())
	return !day.Before(dr.From) && !day.After(dr.To)
}

// At places a time-of-day offset on a calendar date in loc. Offsets are
// split into wall-clock fields so DST transitions resolve the way
// time.Date does; an offset of 24h lands on the next midnight.
func At(date time.Time, offset time.Duration, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	h := int(offset / time.Hour)
	m := int((offset % time.Hour) / time.Minute)
	s := int((offset % time.Minute) / time.Second)
	ns := int(offset % time.Second)
	y, mo, d := date.Date()
	return time.Date(y, mo, d, h, m, s, ns, loc)
}

// DayBounds returns [midnight, next midnight) of date in loc.
func DayBounds(date time.Time, loc *time.Location) TimeRange {
	return TimeRange{Start: At(date, 0, loc), End: At(date, 24*time.Hour, loc)}
}
