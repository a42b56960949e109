package timetable

// Candidate is a proposed placement checked against the schedule built so far.
type Candidate struct {
	CourseID  int64
	Day       Weekday
	TimeRange string
}

// HasConflict reports whether placing the candidate would clash with an entry at the
// same day and time range, either through a shared teacher or a shared cohort
// (common department at the same level). Room occupancy is checked separately.
func HasConflict(entries []Entry, candidate Candidate, courses map[int64]*Course) bool {
	course, ok := courses[candidate.CourseID]
	if !ok {
		return true
	}
	for _, e := range entries {
		if e.Day != candidate.Day || e.TimeRange != candidate.TimeRange {
			continue
		}
		existing, ok := courses[e.CourseID]
		if !ok {
			continue
		}
		if sameTeacher(course, existing) {
			return true
		}
		if course.Level == existing.Level && sharesDepartment(course, existing) {
			return true
		}
	}
	return false
}

func sameTeacher(a, b *Course) bool {
	return a.TeacherID != nil && b.TeacherID != nil && *a.TeacherID == *b.TeacherID
}

func sharesDepartment(a, b *Course) bool {
	if len(a.Departments) == 0 || len(b.Departments) == 0 {
		return false
	}
	depts := make(map[string]struct{}, len(a.Departments))
	for _, d := range a.Departments {
		depts[d.Department] = struct{}{}
	}
	for _, d := range b.Departments {
		if _, ok := depts[d.Department]; ok {
			return true
		}
	}
	return false
}
