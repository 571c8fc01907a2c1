package schedule

import "time"

const (
	// ImminentLead is how many minutes ahead a class counts as about to start.
	ImminentLead = 60
	// ImminentGrace is how many minutes after its start a class still counts as joinable.
	ImminentGrace = 10
)

// MinutesUntil returns the signed number of minutes from the wall clock of ref to at,
// both taken on the same day. It is negative once at has passed.
func MinutesUntil(at TimeOfDay, ref time.Time) int {
	return at.minutes - TimeOfDayOf(ref).minutes
}

// IsImminent reports whether a class starting today at at is within
// [-ImminentGrace, +ImminentLead] minutes of ref.
func IsImminent(at TimeOfDay, ref time.Time) bool {
	m := MinutesUntil(at, ref)
	return m >= -ImminentGrace && m <= ImminentLead
}
