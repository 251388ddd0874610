package calendar

import (
	"fmt"
	"strings"
	"time"
)

// ParseClock reads "HH:MM" as an offset from midnight. "24:00" is accepted
// as the end of the day.
func ParseClock(raw string) (time.Duration, error) {
	var h, m int
	if _, err := fmt.Sscanf(raw, "%d:%d", &h, &m); err != nil || len(raw) != 5 {
		return 0, fmt.Errorf("time of day %q must be HH:MM", raw)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("time of day %q out of range", raw)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// ParseWeekday accepts full English day names and their three-letter
// abbreviations, in any case.
func ParseWeekday(raw string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(raw, d.String()) || strings.EqualFold(raw, d.String()[:3]) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", raw)
}
