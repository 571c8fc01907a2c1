package schedule

// DurationMinutes returns the minutes elapsed between two same-day "HH:MM" times.
// Parse errors are returned as is, start first.
func DurationMinutes(start, end string) (int, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return 0, err
	}
	return Between(s, e)
}

// Between returns end - start in minutes. An end before start is rejected, not wrapped.
func Between(start, end TimeOfDay) (int, error) {
	if end.minutes < start.minutes {
		return 0, &MidnightCrossingError{Start: start, End: end}
	}
	return end.minutes - start.minutes, nil
}
