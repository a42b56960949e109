package timetable

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Availability holds a teacher's weekly free-from markers in minutes since midnight,
// keyed by lowercase day name. A day without markers is unrestricted.
type Availability struct {
	days map[string][]int
}

// Unrestricted returns availability that accepts every day and block.
func Unrestricted() Availability {
	return Availability{}
}

// NewAvailability builds availability from day → "HH:MM" markers.
// Unparseable markers are dropped.
func NewAvailability(raw map[string][]string) Availability {
	days := make(map[string][]int, len(raw))
	for day, markers := range raw {
		key := strings.ToLower(strings.TrimSpace(day))
		for _, marker := range markers {
			minutes, err := parseClock(marker)
			if err != nil {
				continue
			}
			days[key] = append(days[key], minutes)
		}
	}
	return Availability{days: days}
}

// ParseAvailability decodes the stored working-hours JSON blob.
// Empty input is unrestricted; malformed input is unrestricted and returns the decode error.
func ParseAvailability(raw []byte) (Availability, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return Unrestricted(), nil
	}
	var decoded map[string][]string
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Unrestricted(), fmt.Errorf("decode working hours: %w", err)
	}
	return NewAvailability(decoded), nil
}

// IsAvailable reports whether any free marker for the day falls inside [block.Start, block.End).
// The test is point-in-interval: a marker at 09:00 admits 08:00-09:30 but not 09:30-11:00.
func (a Availability) IsAvailable(day Weekday, block TimeBlock) bool {
	markers := a.days[strings.ToLower(string(day))]
	if len(markers) == 0 {
		return true
	}
	start, err := parseClock(block.Start)
	if err != nil {
		return true
	}
	end, err := parseClock(block.End)
	if err != nil {
		return true
	}
	for _, m := range markers {
		if m >= start && m < end {
			return true
		}
	}
	return false
}

// Restricted reports whether any day carries markers.
func (a Availability) Restricted() bool {
	for _, markers := range a.days {
		if len(markers) > 0 {
			return true
		}
	}
	return false
}

// CountRestricted returns how many courses have a teacher with declared availability.
func CountRestricted(courses []Course) int {
	n := 0
	for _, c := range courses {
		if c.Availability.Restricted() {
			n++
		}
	}
	return n
}

func parseClock(raw string) (int, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid time %q", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return hours*60 + minutes, nil
}
