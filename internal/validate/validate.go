// Package validate держит общий экземпляр go-playground/validator с нашими тегами.
// Ошибки валидации возвращаются как apperr.InvalidInput.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"tarameteo/internal/apperr"
)

var (
	once sync.Once
	v    *validator.Validate
)

var deviceIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// V возвращает настроенный валидатор. Имена полей в ошибках берутся из json-тегов.
func V() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("deviceid", deviceID)
		_ = v.RegisterValidation("sensorname", sensorName)
	})
	return v
}

// deviceid: только латиница, цифры, '-' и '_' (попадает в CN сертификата).
func deviceID(fl validator.FieldLevel) bool {
	return deviceIDRe.MatchString(fl.Field().String())
}

// sensorname: имя идёт сегментом URL, поэтому без '/' и управляющих символов.
func sensorName(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if strings.TrimSpace(s) != s {
		return false
	}
	for _, r := range s {
		if r == '/' || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

// Struct проверяет структуру и сворачивает ошибки в одну InvalidInput.
func Struct(s any) error {
	err := V().Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return apperr.Wrap(apperr.InvalidInput, err, "invalid request")
	}
	msgs := make([]string, 0, len(ves))
	for _, fe := range ves {
		msgs = append(msgs, fieldMessage(fe))
	}
	return apperr.New(apperr.InvalidInput, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", f, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", f, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", f, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", f, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", f, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", f, fe.Param())
	case "deviceid":
		return f + " may contain only letters, digits, '-' and '_'"
	case "sensorname":
		return f + " must not contain '/', control characters or surrounding spaces"
	default:
		return fmt.Sprintf("%s failed %s", f, fe.Tag())
	}
}
