package calendar

import (
	"testing"
	"time"
)

func mustTime(t *testing.T, year int, month time.Month, day, hour, min int) time.Time {
	t.Helper()
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func equalTimeRangeSlices(a, b []TimeRange) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Start.Equal(b[i].Start) || !a[i].End.Equal(b[i].End) {
			return false
		}
	}
	return true
}

func TestNewTimeRange_RejectsEmptyAndInverted(t *testing.T) {
	start := mustTime(t, 2025, 1, 6, 10, 0)

	if _, err := NewTimeRange(start, start); err != ErrInvalidTimeRange {
		t.Fatalf("expected ErrInvalidTimeRange for empty range, got %v", err)
	}
	if _, err := NewTimeRange(start, start.Add(-time.Hour)); err != ErrInvalidTimeRange {
		t.Fatalf("expected ErrInvalidTimeRange for inverted range, got %v", err)
	}
	if _, err := NewTimeRange(time.Time{}, start); err != ErrInvalidTimeRange {
		t.Fatalf("expected ErrInvalidTimeRange for zero start, got %v", err)
	}
	if _, err := NewTimeRange(start, start.Add(time.Hour)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOverlaps_HalfOpen(t *testing.T) {
	a := TimeRange{Start: mustTime(t, 2025, 1, 6, 10, 0), End: mustTime(t, 2025, 1, 6, 11, 0)}
	backToBack := TimeRange{Start: mustTime(t, 2025, 1, 6, 11, 0), End: mustTime(t, 2025, 1, 6, 12, 0)}
	partial := TimeRange{Start: mustTime(t, 2025, 1, 6, 10, 30), End: mustTime(t, 2025, 1, 6, 11, 30)}

	if a.Overlaps(backToBack) || backToBack.Overlaps(a) {
		t.Fatalf("back-to-back ranges must not overlap")
	}
	if !a.Overlaps(partial) || !partial.Overlaps(a) {
		t.Fatalf("expected partial overlap")
	}
	if !a.Touches(backToBack) {
		t.Fatalf("expected back-to-back ranges to touch")
	}
}

func TestUnion_MergesOverlappingAndAdjacent(t *testing.T) {
	in := []TimeRange{
		{Start: mustTime(t, 2025, 1, 1, 13, 0), End: mustTime(t, 2025, 1, 1, 15, 0)},
		{Start: mustTime(t, 2025, 1, 1, 9, 0), End: mustTime(t, 2025, 1, 1, 12, 0)},
		{Start: mustTime(t, 2025, 1, 1, 12, 0), End: mustTime(t, 2025, 1, 1, 12, 30)},
		{Start: mustTime(t, 2025, 1, 1, 14, 0), End: mustTime(t, 2025, 1, 1, 16, 0)},
	}

	got := Union(in)
	want := []TimeRange{
		{Start: mustTime(t, 2025, 1, 1, 9, 0), End: mustTime(t, 2025, 1, 1, 12, 30)},
		{Start: mustTime(t, 2025, 1, 1, 13, 0), End: mustTime(t, 2025, 1, 1, 16, 0)},
	}
	if !equalTimeRangeSlices(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if !in[0].Start.Equal(mustTime(t, 2025, 1, 1, 13, 0)) {
		t.Fatalf("input slice must not be reordered")
	}
}

func TestFirstOverlap(t *testing.T) {
	adjacent := []TimeRange{
		{Start: mustTime(t, 2025, 1, 1, 9, 0), End: mustTime(t, 2025, 1, 1, 12, 0)},
		{Start: mustTime(t, 2025, 1, 1, 12, 0), End: mustTime(t, 2025, 1, 1, 17, 0)},
	}
	if _, _, found := FirstOverlap(adjacent); found {
		t.Fatalf("adjacent ranges must not be reported")
	}

	overlapping := append(adjacent, TimeRange{Start: mustTime(t, 2025, 1, 1, 16, 0), End: mustTime(t, 2025, 1, 1, 18, 0)})
	a, b, found := FirstOverlap(overlapping)
	if !found {
		t.Fatalf("expected overlap")
	}
	if !a.Start.Equal(mustTime(t, 2025, 1, 1, 12, 0)) || !b.Start.Equal(mustTime(t, 2025, 1, 1, 16, 0)) {
		t.Fatalf("unexpected pair %+v / %+v", a, b)
	}
}

func TestSubtract_SplitsAndClips(t *testing.T) {
	base := []TimeRange{
		{Start: mustTime(t, 2025, 1, 1, 9, 0), End: mustTime(t, 2025, 1, 1, 17, 0)},
	}

	got := Subtract(base, TimeRange{Start: mustTime(t, 2025, 1, 1, 12, 0), End: mustTime(t, 2025, 1, 1, 13, 0)})
	want := []TimeRange{
		{Start: mustTime(t, 2025, 1, 1, 9, 0), End: mustTime(t, 2025, 1, 1, 12, 0)},
		{Start: mustTime(t, 2025, 1, 1, 13, 0), End: mustTime(t, 2025, 1, 1, 17, 0)},
	}
	if !equalTimeRangeSlices(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	got = Subtract(base, TimeRange{Start: mustTime(t, 2025, 1, 1, 8, 0), End: mustTime(t, 2025, 1, 1, 10, 0)})
	want = []TimeRange{{Start: mustTime(t, 2025, 1, 1, 10, 0), End: mustTime(t, 2025, 1, 1, 17, 0)}}
	if !equalTimeRangeSlices(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	got = Subtract(base, TimeRange{Start: mustTime(t, 2025, 1, 1, 0, 0), End: mustTime(t, 2025, 1, 2, 0, 0)})
	if len(got) != 0 {
		t.Fatalf("expected full removal, got %+v", got)
	}
}

func TestFindContaining_RequiresFullContainment(t *testing.T) {
	windows := []TimeRange{
		{Start: mustTime(t, 2025, 1, 1, 9, 0), End: mustTime(t, 2025, 1, 1, 12, 0)},
		{Start: mustTime(t, 2025, 1, 1, 13, 0), End: mustTime(t, 2025, 1, 1, 17, 0)},
	}

	if _, ok := FindContaining(windows, TimeRange{Start: mustTime(t, 2025, 1, 1, 9, 0), End: mustTime(t, 2025, 1, 1, 12, 0)}); !ok {
		t.Fatalf("exact window must be contained")
	}
	if _, ok := FindContaining(windows, TimeRange{Start: mustTime(t, 2025, 1, 1, 11, 0), End: mustTime(t, 2025, 1, 1, 14, 0)}); ok {
		t.Fatalf("range spanning a gap must not be contained")
	}
	if _, ok := FindContaining(windows, TimeRange{Start: mustTime(t, 2025, 1, 1, 8, 0), End: mustTime(t, 2025, 1, 1, 8, 30)}); ok {
		t.Fatalf("range outside windows must not be contained")
	}
}

func TestCovering_EndAtMidnightStaysOnSameDay(t *testing.T) {
	tr := TimeRange{Start: mustTime(t, 2025, 1, 6, 22, 0), End: mustTime(t, 2025, 1, 7, 0, 0)}
	dr := Covering(tr, time.UTC)
	if !dr.From.Equal(Date(2025, 1, 6)) || !dr.To.Equal(Date(2025, 1, 6)) {
		t.Fatalf("expected single day 2025-01-06, got %v..%v", dr.From, dr.To)
	}

	tr.End = mustTime(t, 2025, 1, 7, 1, 0)
	dr = Covering(tr, time.UTC)
	if len(dr.Days()) != 2 {
		t.Fatalf("expected 2 days, got %d", len(dr.Days()))
	}
}

func TestAt_UsesLocationWallClock(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		t.Skipf("tzdata not available: %v", err)
	}
	got := At(Date(2025, 1, 6), 9*time.Hour+30*time.Minute, loc)
	if got.Hour() != 9 || got.Minute() != 30 || got.Location() != loc {
		t.Fatalf("expected 09:30 Moscow, got %v", got)
	}
	if !got.UTC().Equal(mustTime(t, 2025, 1, 6, 6, 30)) {
		t.Fatalf("expected 06:30 UTC, got %v", got.UTC())
	}

	midnight := At(Date(2025, 1, 6), 24*time.Hour, time.UTC)
	if !midnight.Equal(mustTime(t, 2025, 1, 7, 0, 0)) {
		t.Fatalf("expected next midnight, got %v", midnight)
	}
}

func TestNewDateRange_Invalid(t *testing.T) {
	if _, err := NewDateRange(Date(2025, 1, 7), Date(2025, 1, 6)); err != ErrInvalidDateRange {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
	if _, err := NewDateRange(Date(2025, 1, 1), Date(2027, 1, 1)); err != ErrInvalidDateRange {
		t.Fatalf("expected ErrInvalidDateRange for oversized range, got %v", err)
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	p := Paginate(items, 2, 2)
	if len(p.Items) != 2 || p.Items[0] != 3 || !p.HasNext || !p.HasPrev || p.Total != 5 {
		t.Fatalf("unexpected page: %+v", p)
	}

	p = Paginate(items, 10, 2)
	if len(p.Items) != 0 || p.HasNext {
		t.Fatalf("expected empty last page, got %+v", p)
	}

	p = Paginate(items, 0, 0)
	if p.Page != 1 || p.PageSize != defaultPageSize || len(p.Items) != 5 {
		t.Fatalf("expected defaults, got %+v", p)
	}
}
