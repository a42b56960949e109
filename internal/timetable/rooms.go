package timetable

// SelectRoom picks the smallest free room that can hold studentCount students
// and suits the session type. Equal capacities keep input order.
func SelectRoom(rooms []Room, sessionType SessionType, studentCount int, occupied map[int64]struct{}) (Room, bool) {
	var (
		best  Room
		found bool
	)
	for _, room := range rooms {
		if _, busy := occupied[room.ID]; busy {
			continue
		}
		if room.Capacity < studentCount {
			continue
		}
		if !sessionType.FitsRoom(room.Type) {
			continue
		}
		if !found || room.Capacity < best.Capacity {
			best = room
			found = true
		}
	}
	return best, found
}

func occupiedRooms(entries []Entry, day Weekday, timeRange string) map[int64]struct{} {
	occupied := make(map[int64]struct{})
	for _, e := range entries {
		if e.Day == day && e.TimeRange == timeRange {
			occupied[e.RoomID] = struct{}{}
		}
	}
	return occupied
}
