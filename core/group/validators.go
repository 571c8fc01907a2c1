package group

import (
	"fmt"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/tutoria/core/schedule"
)

var endBeforeStartTag = "endbeforestart"

// InitValidators registers the Group validators on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(groupStructValidation, NewGroup{}, UpdateGroup{})

	// the start time travels as the error param
	_ = validate.RegisterTranslation(
		endBeforeStartTag, translator,
		func(ut.Translator) error { return nil },
		func(_ ut.Translator, fe validator.FieldError) string {
			start, err := schedule.ParseTimeOfDay(fe.Param())
			if err != nil {
				return err.Error()
			}
			end, err := schedule.ParseTimeOfDay(fmt.Sprint(fe.Value()))
			if err != nil {
				return err.Error()
			}
			if _, err = schedule.Between(start, end); err != nil {
				return err.Error()
			}
			return ""
		},
	)
}

// groupStructValidation does struct level validation on NewGroup and UpdateGroup structs.
func groupStructValidation(sl validator.StructLevel) {
	switch grp := sl.Current().Interface().(type) {
	case NewGroup:
		validateTimeRange(grp.StartTime, grp.EndTime, sl)
	case UpdateGroup:
		validateTimeRange(grp.StartTime, grp.EndTime, sl)
	}
}

// validateTimeRange rejects an end time before the start time.
// Malformed times are reported by their field tags.
func validateTimeRange(start, end string, sl validator.StructLevel) {
	s, err := schedule.ParseTimeOfDay(start)
	if err != nil {
		return
	}
	e, err := schedule.ParseTimeOfDay(end)
	if err != nil {
		return
	}
	if _, err = schedule.Between(s, e); err != nil {
		sl.ReportError(end, "end_time", "EndTime", endBeforeStartTag, start)
	}
}
