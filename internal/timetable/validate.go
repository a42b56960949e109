package timetable

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks generator input rejected before scheduling.
var ErrInvalidInput = errors.New("invalid timetable input")

// Validate rejects malformed courses and rooms. The scheduler assumes validated input.
func Validate(courses []Course, rooms []Room) error {
	seenCourses := make(map[int64]struct{}, len(courses))
	for _, c := range courses {
		if _, dup := seenCourses[c.ID]; dup {
			return fmt.Errorf("%w: duplicate course id %d", ErrInvalidInput, c.ID)
		}
		seenCourses[c.ID] = struct{}{}
		for i, s := range c.Sessions {
			if s.Type != SessionLecture && s.Type != SessionLab {
				return fmt.Errorf("%w: course %s session %d has unknown type %q", ErrInvalidInput, c.Code, i+1, s.Type)
			}
			if s.Hours < 1 {
				return fmt.Errorf("%w: course %s session %d must last at least one hour", ErrInvalidInput, c.Code, i+1)
			}
		}
		for _, d := range c.Departments {
			if d.StudentCount < 0 {
				return fmt.Errorf("%w: course %s department %s has negative student count", ErrInvalidInput, c.Code, d.Department)
			}
		}
	}

	seenRooms := make(map[int64]struct{}, len(rooms))
	for _, r := range rooms {
		if _, dup := seenRooms[r.ID]; dup {
			return fmt.Errorf("%w: duplicate room id %d", ErrInvalidInput, r.ID)
		}
		seenRooms[r.ID] = struct{}{}
		if r.Capacity < 1 {
			return fmt.Errorf("%w: room %s capacity must be at least 1", ErrInvalidInput, r.Name)
		}
		if r.Type != RoomLecture && r.Type != RoomLab {
			return fmt.Errorf("%w: room %s has unknown type %q", ErrInvalidInput, r.Name, r.Type)
		}
	}
	return nil
}
