package schedule

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrInvalidFormat    = errors.New("invalid time format")
	ErrOutOfRange       = errors.New("time value out of range")
	ErrMidnightCrossing = errors.New("crossing midnight is not supported")
)

// ErrorKind identifies which of the closed set of schedule failures an error is.
type ErrorKind int

const (
	InvalidFormat ErrorKind = iota + 1
	OutOfRange
	MidnightCrossingUnsupported
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidFormat:
		return "InvalidFormat"
	case OutOfRange:
		return "OutOfRange"
	case MidnightCrossingUnsupported:
		return "MidnightCrossingUnsupported"
	default:
		return "Unknown"
	}
}

type (
	// InvalidFormatError is returned when a value does not follow the H:MM / HH:MM grammar.
	InvalidFormatError struct {
		Input  string
		Reason string
	}

	// OutOfRangeError is returned when a well-formed time has an hour or a minute outside its bounds.
	OutOfRangeError struct {
		Unit  string // "hours" | "minutes"
		Value int
		Min   int
		Max   int
	}

	// MidnightCrossingError is returned when a same-day interval ends before it starts.
	MidnightCrossingError struct {
		Start TimeOfDay
		End   TimeOfDay
	}
)

func (e *InvalidFormatError) Error() string       { return e.Reason }
func (e *InvalidFormatError) Is(target error) bool { return target == ErrInvalidFormat }

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s %d out of range %d-%d", e.Unit, e.Value, e.Min, e.Max)
}
func (e *OutOfRangeError) Is(target error) bool { return target == ErrOutOfRange }

func (e *MidnightCrossingError) Error() string {
	return fmt.Sprintf("end time %s precedes start time %s; crossing midnight is not supported", e.End, e.Start)
}
func (e *MidnightCrossingError) Is(target error) bool { return target == ErrMidnightCrossing }

// KindOf reports the ErrorKind of err, looking through wrapped errors. It returns 0 for foreign errors.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrInvalidFormat):
		return InvalidFormat
	case errors.Is(err, ErrOutOfRange):
		return OutOfRange
	case errors.Is(err, ErrMidnightCrossing):
		return MidnightCrossingUnsupported
	default:
		return 0
	}
}

// IsScheduleError reports whether err (or one it wraps) belongs to this package's taxonomy.
func IsScheduleError(err error) bool {
	return KindOf(err) != 0
}
