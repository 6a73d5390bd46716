package models

import (
	"time"
)

// ParseDateString parses a local datetime string (no offset) in the given
// timezone and converts it to UTC for storage.
func ParseDateString(dateString string, timezone string) (time.Time, error) {

	localTime, err := time.Parse("2006-01-02T15:04:05", dateString)
	if err != nil {
		return time.Time{}, err
	}

	if timezone == "" {
		timezone = "UTC"
	}

	location, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, err
	}

	localTimeInZone := time.Date(
		localTime.Year(), localTime.Month(), localTime.Day(),
		localTime.Hour(), localTime.Minute(), localTime.Second(), localTime.Nanosecond(),
		location,
	)

	return localTimeInZone.UTC(), nil
}

// ParseDateOnly parses a YYYY-MM-DD string as midnight UTC.
func ParseDateOnly(dateString string) (time.Time, error) {
	return time.Parse("2006-01-02", dateString)
}
