package refresh

import "time"

// MonthlySchedule returns true if a run is needed for a monthly job.
func MonthlySchedule(now time.Time, lastSuccess *time.Time) bool {
	if lastSuccess == nil {
		return true
	}
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return lastSuccess.Before(thisMonth)
}

// WeeklySchedule returns true if a run is needed for a weekly job.
func WeeklySchedule(now time.Time, lastSuccess *time.Time) bool {
	if lastSuccess == nil {
		return true
	}
	// Weeks start on Monday.
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	weekStart := time.Date(now.Year(), now.Month(), now.Day()-(weekday-1), 0, 0, 0, 0, time.UTC)
	return lastSuccess.Before(weekStart)
}

// DailySchedule returns true if a run is needed for a daily job.
func DailySchedule(now time.Time, lastSuccess *time.Time) bool {
	if lastSuccess == nil {
		return true
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return lastSuccess.Before(today)
}

// Due applies the schedule matching a cadence. Unknown cadences are always due.
func Due(c Cadence, now time.Time, lastSuccess *time.Time) bool {
	switch c {
	case Daily:
		return DailySchedule(now, lastSuccess)
	case Weekly:
		return WeeklySchedule(now, lastSuccess)
	case Monthly:
		return MonthlySchedule(now, lastSuccess)
	default:
		return true
	}
}
