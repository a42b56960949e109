package timetable

import "sort"

// Outcome describes how a generation run ended.
type Outcome string

const (
	OutcomeScheduled Outcome = "scheduled"
	OutcomeNoCourses Outcome = "no_courses"
	OutcomeNoRooms   Outcome = "no_rooms"
)

// Options tunes the constructive scheduler.
type Options struct {
	// PerBlockAvailability checks the teacher against every candidate block.
	// When false a day is skipped as soon as the teacher is unavailable for the
	// first block of that day, even if later blocks would be free.
	PerBlockAvailability bool
}

// Plan is the raw output of one generation run.
type Plan struct {
	Outcome       Outcome
	Entries       []Entry
	Unscheduled   []UnscheduledCourse
	TotalSessions int
}

// Generate places every session of every course using a greedy first-fit pass.
// Courses with the most students go first; each session takes the first
// day/block/room combination that passes availability, conflict and room checks.
// Nothing is moved once placed.
func Generate(courses []Course, rooms []Room, opts Options) Plan {
	plan := Plan{Outcome: OutcomeScheduled, Entries: []Entry{}, Unscheduled: []UnscheduledCourse{}}
	for _, c := range courses {
		plan.TotalSessions += len(c.Sessions)
	}

	if len(courses) == 0 {
		plan.Outcome = OutcomeNoCourses
		return plan
	}
	if len(rooms) == 0 {
		plan.Outcome = OutcomeNoRooms
		for _, c := range courses {
			plan.Unscheduled = append(plan.Unscheduled, unscheduledFrom(c, ReasonNoClassroom))
		}
		return plan
	}

	ordered := make([]Course, len(courses))
	copy(ordered, courses)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StudentCount() > ordered[j].StudentCount()
	})

	index := make(map[int64]*Course, len(ordered))
	for i := range ordered {
		index[ordered[i].ID] = &ordered[i]
	}

	for i := range ordered {
		course := &ordered[i]
		students := course.StudentCount()
		placed := 0
		for _, session := range course.Sessions {
			entry, ok := placeSession(plan.Entries, course, session, students, rooms, index, opts)
			if !ok {
				continue
			}
			plan.Entries = append(plan.Entries, entry)
			placed++
		}
		if placed < len(course.Sessions) {
			plan.Unscheduled = append(plan.Unscheduled, unscheduledFrom(*course, ReasonNoSuitableSlot))
		}
	}
	return plan
}

func placeSession(
	entries []Entry,
	course *Course,
	session Session,
	students int,
	rooms []Room,
	index map[int64]*Course,
	opts Options,
) (Entry, bool) {
	for _, day := range Weekdays {
		if !opts.PerBlockAvailability && !course.Availability.IsAvailable(day, TimeBlocks[0]) {
			continue
		}
		for _, block := range TimeBlocks {
			if opts.PerBlockAvailability && !course.Availability.IsAvailable(day, block) {
				continue
			}
			timeRange := block.Range()
			if HasConflict(entries, Candidate{CourseID: course.ID, Day: day, TimeRange: timeRange}, index) {
				continue
			}
			room, ok := SelectRoom(rooms, session.Type, students, occupiedRooms(entries, day, timeRange))
			if !ok {
				continue
			}
			return Entry{
				CourseID:     course.ID,
				RoomID:       room.ID,
				Day:          day,
				TimeRange:    timeRange,
				SessionType:  session.Type,
				SessionHours: session.Hours,
			}, true
		}
	}
	return Entry{}, false
}
