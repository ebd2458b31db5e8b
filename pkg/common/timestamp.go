package common

import "time"

// localTimestampLayout is ISO-8601 without a zone designator. Such
// timestamps are read as UTC.
const localTimestampLayout = "2006-01-02T15:04:05.999999999"

// ParseTimestamp parses an interaction timestamp. RFC3339 values keep their
// own offset so date and hour-of-day are those of the record; zone-less
// values are taken as UTC.
func ParseTimestamp(v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err == nil {
		return t, nil
	}
	if lt, lerr := time.Parse(localTimestampLayout, v); lerr == nil {
		return lt, nil
	}
	return time.Time{}, err
}

// FormatTimestamp renders t as stored in the graph: RFC3339 in t's own
// offset, so the date prefix is the record's local date.
func FormatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}
