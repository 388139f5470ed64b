package util

import "time"

// DateLayout is the layout of HTML date inputs and of dates in the database.
const DateLayout = "2006-01-02"

// ParseDate parses "2006-01-02" or the Brazilian "02/01/2006" into a date at midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err == nil {
		return t, nil
	}
	return time.Parse("02/01/2006", s)
}

// Age returns the completed years between birth and now.
func Age(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}
