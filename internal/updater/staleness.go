package updater

import "time"

// Back-off constants for the news staleness model. A fresh record is
// re-checked after roughly a month; every unchanged scrape stretches the
// interval by half the base, and at settledFactor the record is considered
// permanently settled and never re-checked automatically.
const (
	baseIntervalDays = 31.0
	factorStep       = 0.5
	initialFactor    = 1.0
	settledFactor    = 12.0
)

// IsOutdated reports whether the record is due for a re-scrape on the given
// day. A locked record is never outdated: the lock is an editorial pin that
// overrides the whole model.
func (n NewsRecord) IsOutdated(today time.Time) bool {
	if n.IsLocked {
		return false
	}
	if n.UpdateFactor >= settledFactor {
		return false
	}
	thresholdDays := int64(baseIntervalDays * n.UpdateFactor)
	ageDays := int64(DateOnly(today).Sub(DateOnly(n.LastUpdated)).Hours() / 24)
	return ageDays > thresholdDays
}
