package ingest

import "time"

// WeekBucketLayout is the date format of a week bucket.
const WeekBucketLayout = "2006-01-02"

// WeekBucket returns the Monday of the calendar week containing now, in
// now's location, formatted as YYYY-MM-DD.
func WeekBucket(now time.Time) string {
	offset := (int(now.Weekday()) + 6) % 7 // days since Monday
	y, m, d := now.Date()
	monday := time.Date(y, m, d-offset, 0, 0, 0, 0, now.Location())
	return monday.Format(WeekBucketLayout)
}
