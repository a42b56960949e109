package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	lecture := []Session{{Type: SessionLecture, Hours: 2}}
	room := Room{ID: 1, Name: "A101", Capacity: 30, Type: RoomLecture}

	cases := []struct {
		name    string
		courses []Course
		rooms   []Room
		wantErr bool
	}{
		{name: "valid", courses: []Course{{ID: 1, Sessions: lecture}}, rooms: []Room{room}},
		{name: "duplicate course", courses: []Course{{ID: 1, Sessions: lecture}, {ID: 1, Sessions: lecture}}, rooms: []Room{room}, wantErr: true},
		{name: "zero hour session", courses: []Course{{ID: 1, Sessions: []Session{{Type: SessionLab, Hours: 0}}}}, rooms: []Room{room}, wantErr: true},
		{name: "unknown session type", courses: []Course{{ID: 1, Sessions: []Session{{Type: "seminar", Hours: 1}}}}, rooms: []Room{room}, wantErr: true},
		{name: "negative enrolment", courses: []Course{{ID: 1, Departments: []DepartmentEnrollment{{Department: "CS", StudentCount: -1}}}}, rooms: []Room{room}, wantErr: true},
		{name: "zero capacity", rooms: []Room{{ID: 1, Capacity: 0, Type: RoomLab}}, wantErr: true},
		{name: "duplicate room", rooms: []Room{room, room}, wantErr: true},
		{name: "unknown room type", rooms: []Room{{ID: 2, Capacity: 5, Type: "gym"}}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.courses, tc.rooms)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestParseTypes(t *testing.T) {
	session, err := ParseSessionType(" Teorik ")
	require.NoError(t, err)
	assert.Equal(t, SessionLecture, session)

	room, err := ParseRoomType("LAB")
	require.NoError(t, err)
	assert.Equal(t, RoomLab, room)

	_, err = ParseRoomType("gym")
	assert.Error(t, err)

	assert.True(t, SessionLecture.FitsRoom(RoomLab))
	assert.False(t, SessionLab.FitsRoom(RoomLecture))
}

func TestParseWeekday(t *testing.T) {
	day, ok := ParseWeekday("wednesday")
	assert.True(t, ok)
	assert.Equal(t, Wednesday, day)

	_, ok = ParseWeekday("Saturday")
	assert.False(t, ok)
}

func TestUnscheduledReportsStoredTotalHours(t *testing.T) {
	c := Course{ID: 7, Code: "CS7", TotalHours: 0, Sessions: []Session{{Type: SessionLecture, Hours: 2}, {Type: SessionLab, Hours: 1}}}
	got := unscheduledFrom(c, ReasonNoClassroom)
	assert.Equal(t, 0, got.TotalHours)

	c.TotalHours = 5
	assert.Equal(t, 5, unscheduledFrom(c, ReasonNoClassroom).TotalHours)
}
