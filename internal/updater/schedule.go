package updater

import "time"

// TimeUntilNextUpdate computes how long the comic updater sleeps before its
// next front-page check. Comics are usually posted on weekday mornings, so
// weekdays poll at the top of every hour; weekends drop to two checks, noon
// and midnight. All arithmetic happens in now's location, so the caller
// decides which calendar the site runs on.
func TimeUntilNextUpdate(now time.Time) time.Duration {
	year, month, day := now.Date()
	loc := now.Location()

	switch now.Weekday() {
	case time.Saturday, time.Sunday:
		noon := time.Date(year, month, day, 12, 0, 0, 0, loc)
		if now.Before(noon) {
			return noon.Sub(now)
		}
		return nextMidnight(now).Sub(now)
	default:
		if now.Hour() < 23 {
			nextHour := time.Date(year, month, day, now.Hour()+1, 0, 0, 0, loc)
			return nextHour.Sub(now)
		}
		return nextMidnight(now).Sub(now)
	}
}

func nextMidnight(now time.Time) time.Time {
	year, month, day := now.Date()
	return time.Date(year, month, day+1, 0, 0, 0, 0, now.Location())
}
