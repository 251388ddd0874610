// Package availability turns a resource's weekly rules and dated overrides
// into concrete open windows.
package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Leganyst/booking-core/internal/calendar"
	"github.com/Leganyst/booking-core/internal/model"
	"github.com/Leganyst/booking-core/internal/repository"
)

var (
	ErrRuleOverlap         = errors.New("availability rules overlap")
	ErrOutsideAvailability = errors.New("interval outside availability")
	ErrInvalidRule         = errors.New("invalid availability rule")
)

const fullDay = 24 * time.Hour

// Resolver computes windows from storage on every call; nothing is cached.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// WindowsFor loads the resource's active rules and the overrides dated in
// dr through tx and resolves them. An inactive resource has no windows.
func (r *Resolver) WindowsFor(ctx context.Context, tx *gorm.DB, res *model.Resource, dr calendar.DateRange) ([]calendar.TimeRange, error) {
	if !res.IsActive {
		return nil, nil
	}

	repo := repository.NewGormAvailabilityRepository(tx)
	rules, err := repo.ListRules(ctx, res.ID, true)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	overrides, err := repo.ListOverrides(ctx, res.ID, dr.From, dr.To)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	return Resolve(rules, overrides, res.Location(), dr)
}

// Resolve expands rules day by day in loc, applies OPEN overrides as a union
// and CLOSE overrides as a subtraction, and returns the sorted disjoint
// windows in UTC. Touching windows are merged, including across midnight.
// CLOSE wins over OPEN on the same date.
func Resolve(rules []model.AvailabilityRule, overrides []model.AvailabilityOverride, loc *time.Location, dr calendar.DateRange) ([]calendar.TimeRange, error) {
	if loc == nil {
		loc = time.UTC
	}

	byWeekday := make(map[time.Weekday][]model.AvailabilityRule, 7)
	for _, rule := range rules {
		if rule.IsActive {
			byWeekday[rule.Weekday] = append(byWeekday[rule.Weekday], rule)
		}
	}

	byDate := make(map[string][]model.AvailabilityOverride)
	for _, o := range overrides {
		day := o.Day()
		if dr.Contains(day) {
			byDate[dateKey(day)] = append(byDate[dateKey(day)], o)
		}
	}

	var all []calendar.TimeRange
	for _, day := range dr.Days() {
		var windows []calendar.TimeRange
		for _, rule := range byWeekday[day.Weekday()] {
			start, end := rule.Offsets()
			w := calendar.TimeRange{Start: calendar.At(day, start, loc), End: calendar.At(day, end, loc)}
			if !w.IsEmpty() {
				windows = append(windows, w)
			}
		}
		if a, b, ok := calendar.FirstOverlap(windows); ok {
			return nil, fmt.Errorf("%w: %s %s-%s and %s-%s", ErrRuleOverlap, day.Weekday(),
				a.Start.Format("15:04"), a.End.Format("15:04"), b.Start.Format("15:04"), b.End.Format("15:04"))
		}
		windows = calendar.Union(windows)

		dayOverrides := byDate[dateKey(day)]
		for _, o := range dayOverrides {
			if o.Kind == model.OverrideKindOpen {
				windows = calendar.Union(append(windows, overrideRange(o, day, loc)))
			}
		}
		for _, o := range dayOverrides {
			if o.Kind == model.OverrideKindClose {
				windows = calendar.Subtract(windows, overrideRange(o, day, loc))
			}
		}

		all = append(all, windows...)
	}

	merged := calendar.Union(all)
	for i := range merged {
		merged[i] = merged[i].UTC()
	}
	return merged, nil
}

func dateKey(day time.Time) string {
	return day.Format(time.DateOnly)
}

func overrideRange(o model.AvailabilityOverride, day time.Time, loc *time.Location) calendar.TimeRange {
	if o.IsFullDay() {
		return calendar.DayBounds(day, loc)
	}
	return calendar.TimeRange{
		Start: calendar.At(day, time.Duration(*o.StartTime), loc),
		End:   calendar.At(day, time.Duration(*o.EndTime), loc),
	}
}

// Contains admits interval only if a single window holds all of it. Two
// windows that merely touch would already have been merged.
func Contains(windows []calendar.TimeRange, interval calendar.TimeRange) error {
	if _, ok := calendar.FindContaining(windows, interval); !ok {
		return fmt.Errorf("%w: %s - %s", ErrOutsideAvailability,
			interval.Start.Format(time.RFC3339), interval.End.Format(time.RFC3339))
	}
	return nil
}

func validOffsets(start, end time.Duration) bool {
	return start >= 0 && end <= fullDay && start < end
}

// ValidateRules checks each rule's bounds and that active rules sharing a
// weekday do not overlap. Touching rules are allowed.
func ValidateRules(rules []model.AvailabilityRule) error {
	ref := calendar.Date(2000, time.January, 1)
	byWeekday := make(map[time.Weekday][]calendar.TimeRange, 7)
	for _, rule := range rules {
		start, end := rule.Offsets()
		if rule.Weekday < time.Sunday || rule.Weekday > time.Saturday || !validOffsets(start, end) {
			return fmt.Errorf("%w: %s %s-%s", ErrInvalidRule, rule.Weekday, rule.StartTime, rule.EndTime)
		}
		if !rule.IsActive {
			continue
		}
		byWeekday[rule.Weekday] = append(byWeekday[rule.Weekday], calendar.TimeRange{
			Start: ref.Add(start),
			End:   ref.Add(end),
		})
	}
	for wd, ranges := range byWeekday {
		if _, _, ok := calendar.FirstOverlap(ranges); ok {
			return fmt.Errorf("%w on %s", ErrRuleOverlap, wd)
		}
	}
	return nil
}

// ValidateOverride checks that a partial override has both bounds in order.
func ValidateOverride(o model.AvailabilityOverride) error {
	if o.Kind != model.OverrideKindOpen && o.Kind != model.OverrideKindClose {
		return fmt.Errorf("%w: override kind %q", ErrInvalidRule, o.Kind)
	}
	if o.StartTime == nil && o.EndTime == nil {
		return nil
	}
	if o.StartTime == nil || o.EndTime == nil {
		return fmt.Errorf("%w: override needs both start and end", ErrInvalidRule)
	}
	if !validOffsets(time.Duration(*o.StartTime), time.Duration(*o.EndTime)) {
		return fmt.Errorf("%w: override %s-%s", ErrInvalidRule, *o.StartTime, *o.EndTime)
	}
	return nil
}
