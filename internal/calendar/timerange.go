package calendar

import (
	"errors"
	"sort"
	"time"
)

var (
	ErrInvalidTimeRange = errors.New("invalid time range")
	ErrInvalidDateRange = errors.New("invalid date range")
)

// TimeRange is a half-open interval [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange validates that both bounds are set and Start < End.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if start.IsZero() || end.IsZero() {
		return TimeRange{}, ErrInvalidTimeRange
	}
	if !end.After(start) {
		return TimeRange{}, ErrInvalidTimeRange
	}
	return TimeRange{Start: start, End: end}, nil
}

// UTC returns the range with both bounds converted to UTC and truncated to
// microseconds, the precision Postgres keeps for timestamptz.
func (tr TimeRange) UTC() TimeRange {
	return TimeRange{
		Start: tr.Start.UTC().Truncate(time.Microsecond),
		End:   tr.End.UTC().Truncate(time.Microsecond),
	}
}

func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

func (tr TimeRange) IsEmpty() bool {
	return !tr.End.After(tr.Start)
}

// Overlaps reports a.Start < b.End && b.Start < a.End, so back-to-back
// ranges do not overlap.
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return tr.Start.Before(other.End) && other.Start.Before(tr.End)
}

// Contains reports whether inner lies fully inside tr.
func (tr TimeRange) Contains(inner TimeRange) bool {
	return !inner.Start.Before(tr.Start) && !inner.End.After(tr.End)
}

// Touches reports overlap or adjacency (a.End == b.Start).
func (tr TimeRange) Touches(other TimeRange) bool {
	return !tr.Start.After(other.End) && !other.Start.After(tr.End)
}

// SortRanges orders ranges by start, then end.
func SortRanges(ranges []TimeRange) {
	sort.Slice(ranges, func(i, j int) bool {
		if ranges[i].Start.Equal(ranges[j].Start) {
			return ranges[i].End.Before(ranges[j].End)
		}
		return ranges[i].Start.Before(ranges[j].Start)
	})
}

// Union merges overlapping and adjacent ranges into a sorted disjoint list.
// Empty ranges are dropped. The input slice is not modified.
func Union(ranges []TimeRange) []TimeRange {
	out := make([]TimeRange, 0, len(ranges))
	for _, r := range ranges {
		if !r.IsEmpty() {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return out
	}
	SortRanges(out)

	merged := out[:1]
	for _, r := range out[1:] {
		last := &merged[len(merged)-1]
		if !last.Touches(r) {
			merged = append(merged, r)
			continue
		}
		if r.End.After(last.End) {
			last.End = r.End
		}
	}
	return merged
}

// FirstOverlap sorts a copy of ranges and returns the first pair that
// overlaps under half-open semantics. Adjacent ranges are not reported.
func FirstOverlap(ranges []TimeRange) (TimeRange, TimeRange, bool) {
	sorted := append([]TimeRange(nil), ranges...)
	SortRanges(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].Overlaps(sorted[i]) {
			return sorted[i-1], sorted[i], true
		}
	}
	return TimeRange{}, TimeRange{}, false
}

// Subtract removes cut from every range in base, clipping partial overlaps
// and splitting ranges that fully contain cut.
func Subtract(base []TimeRange, cut TimeRange) []TimeRange {
	out := make([]TimeRange, 0, len(base)+1)
	for _, r := range base {
		if !r.Overlaps(cut) {
			out = append(out, r)
			continue
		}
		if r.Start.Before(cut.Start) {
			out = append(out, TimeRange{Start: r.Start, End: cut.Start})
		}
		if r.End.After(cut.End) {
			out = append(out, TimeRange{Start: cut.End, End: r.End})
		}
	}
	return out
}

// FindContaining returns the window that fully contains tr.
func FindContaining(windows []TimeRange, tr TimeRange) (TimeRange, bool) {
	for _, w := range windows {
		if w.Contains(tr) {
			return w, true
		}
	}
	return TimeRange{}, false
}
