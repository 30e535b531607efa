package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/motoserwis/warsztat-api/pkg/errors"
)

// New returns a validator configured to report JSON field names, so the
// field→message map matches the wire format of request payloads.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Message templates keyed by validator rule. The same rule always yields the
// same message text regardless of endpoint.
const (
	msgRequired      = "Pole %s jest wymagane."
	msgEmail         = "Pole %s musi być poprawnym adresem e-mail."
	msgMaxString     = "Pole %s nie może być dłuższe niż %s znaków."
	msgMaxNumeric    = "Pole %s nie może być większe niż %s."
	msgMinString     = "Pole %s musi mieć co najmniej %s znaków."
	msgMinNumeric    = "Pole %s musi wynosić co najmniej %s."
	msgGTE           = "Pole %s musi być nie mniejsze niż %s."
	msgLTE           = "Pole %s nie może być większe niż %s."
	msgOneOf         = "Wybrana wartość pola %s jest nieprawidłowa."
	msgUUID          = "Pole %s musi być poprawnym identyfikatorem."
	msgDefault       = "Pole %s jest nieprawidłowe."
	msgTakenTpl      = "Wartość pola %s jest już zajęta."
	msgBadChoiceTpl  = "Wybrana wartość pola %s jest nieprawidłowa."
	msgBadOrder      = "Pole order musi mieć wartość asc lub desc."
)

// Translate converts validator errors into a Polish field→message map.
// Non-validator errors yield an empty map.
func Translate(err error) map[string]string {
	fields := make(map[string]string)
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fields
	}
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = messageFor(fe)
	}
	return fields
}

// Error wraps a validator failure into the common 422 error shape.
func Error(err error) *appErrors.Error {
	fields := Translate(err)
	if len(fields) == 0 {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, appErrors.ErrValidation.Message)
	}
	return appErrors.Validation(fields)
}

// Taken returns the uniqueness-violation message for a field.
func Taken(field string) string {
	return fmt.Sprintf(msgTakenTpl, field)
}

// InvalidChoice returns the message for a value outside the allowed set,
// including tenant-scoped foreign keys and sort whitelists.
func InvalidChoice(field string) string {
	return fmt.Sprintf(msgBadChoiceTpl, field)
}

// InvalidOrder returns the message for a sort order outside asc/desc.
func InvalidOrder() string {
	return msgBadOrder
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf(msgRequired, fe.Field())
	case "email":
		return fmt.Sprintf(msgEmail, fe.Field())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf(msgMaxString, fe.Field(), fe.Param())
		}
		return fmt.Sprintf(msgMaxNumeric, fe.Field(), fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf(msgMinString, fe.Field(), fe.Param())
		}
		return fmt.Sprintf(msgMinNumeric, fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf(msgGTE, fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf(msgLTE, fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf(msgOneOf, fe.Field())
	case "uuid":
		return fmt.Sprintf(msgUUID, fe.Field())
	default:
		return fmt.Sprintf(msgDefault, fe.Field())
	}
}
