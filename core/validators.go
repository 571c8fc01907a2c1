package core

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/trezcool/tutoria/core/schedule"
)

var (
	// custom validation tags & texts
	notBlankTag  = "notblank"
	notBlankText = "this field cannot be blank"

	codeTag   = "code"
	codeText  = "only alphanumeric characters, dashes and underscores are allowed"
	codeRegex = regexp.MustCompile(`^[\w-]+$`)

	timeOfDayTag = "timeofday"
	weekdayTag   = "weekday"
	weekdayText  = "unknown day of week"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// NewTranslator returns the english translator used for validation messages.
func NewTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// NewValidator returns a validator with the english translations and the custom tags registered.
func NewValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	InitValidators(validate, translator)
	return validate
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	RegisterCustomTranslation(validate, translator, notBlankTag, notBlankText)

	_ = validate.RegisterValidation(codeTag, codeValidation)
	RegisterCustomTranslation(validate, translator, codeTag, codeText)

	_ = validate.RegisterValidation(weekdayTag, weekdayValidation)
	RegisterCustomTranslation(validate, translator, weekdayTag, weekdayText)

	// the message of a time of day error depends on the value: reuse the parser's
	_ = validate.RegisterValidation(timeOfDayTag, timeOfDayValidation)
	_ = validate.RegisterTranslation(
		timeOfDayTag, translator,
		func(ut.Translator) error { return nil },
		func(_ ut.Translator, fe validator.FieldError) string {
			if _, err := schedule.ParseTimeOfDay(fmt.Sprint(fe.Value())); err != nil {
				return err.Error()
			}
			return ""
		},
	)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

// codeValidation only allows alphanumeric characters, dashes and underscores.
func codeValidation(fl validator.FieldLevel) bool {
	return codeRegex.MatchString(fl.Field().String())
}

// timeOfDayValidation accepts strings that schedule.ParseTimeOfDay accepts.
func timeOfDayValidation(fl validator.FieldLevel) bool {
	_, err := schedule.ParseTimeOfDay(fl.Field().String())
	return err == nil
}

// weekdayValidation accepts strings that schedule.ParseWeekday accepts.
func weekdayValidation(fl validator.FieldLevel) bool {
	_, err := schedule.ParseWeekday(fl.Field().String())
	return err == nil
}
