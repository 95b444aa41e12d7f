package schedule

import "time"

// ServiceDayOrigin returns the reference instant of t's service day: noon
// local time minus 12 hours. On days without a DST transition this equals
// local midnight. On transition days it is shifted by the DST offset, which
// keeps times like "25:10:00" on the right side of the change.
func ServiceDayOrigin(t time.Time) time.Time {
	y, m, d := t.Date()
	noon := time.Date(y, m, d, 12, 0, 0, 0, t.Location())
	return noon.Add(-12 * time.Hour)
}

// RelativeTimestamp returns the seconds elapsed between the origin of t's
// own service day and t. Values can be negative early on a DST transition day
// and can exceed 86400.
func RelativeTimestamp(t time.Time) int64 {
	return int64(t.Sub(ServiceDayOrigin(t)) / time.Second)
}

// SecondsSinceOrigin returns the seconds between the origin of serviceDate's
// day and t. It is the exact inverse of AbsoluteTimestamp.
func SecondsSinceOrigin(serviceDate, t time.Time) int64 {
	return int64(t.Sub(ServiceDayOrigin(serviceDate)) / time.Second)
}

// AbsoluteTimestamp converts seconds since the origin of serviceDate's day
// into an instant.
func AbsoluteTimestamp(serviceDate time.Time, seconds int64) time.Time {
	return ServiceDayOrigin(serviceDate).Add(time.Duration(seconds) * time.Second)
}

// dateInt formats t's local date as a YYYYMMDD integer.
func dateInt(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
