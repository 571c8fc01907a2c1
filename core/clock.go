package core

import "time"

// Clock is the single place the application reads "now" from.
// Domain code receives the instant as an argument instead.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

var (
	_ Clock = SystemClock{}
	_ Clock = FixedClock{}
)
