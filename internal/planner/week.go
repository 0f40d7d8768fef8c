package planner

import "time"

// WeekStart returns midnight of the Monday of t's week, in t's location.
func WeekStart(t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return day.AddDate(0, 0, -offset)
}

// GetNextMonday returns the Monday following t. A Monday maps to the next one.
func GetNextMonday(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, 7)
}

// WeekDays returns the seven ISO days of the week starting at WeekStart(t).
func WeekDays(t time.Time) []string {
	start := WeekStart(t)
	days := make([]string, 7)
	for i := range days {
		days[i] = DateKey(start.AddDate(0, 0, i))
	}
	return days
}
