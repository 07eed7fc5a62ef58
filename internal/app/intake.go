package app

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"diagnostic-lead-service/internal/domain"
)

func newIntakeValidator() *validator.Validate {
	v := validator.New()
	// report fields by their JSON names, as the intake form knows them
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func normalizeIntake(info domain.UserInfo) domain.UserInfo {
	info.FirstName = strings.TrimSpace(info.FirstName)
	info.LastName = strings.TrimSpace(info.LastName)
	info.Email = strings.ToLower(strings.TrimSpace(info.Email))
	info.Phone = strings.TrimSpace(info.Phone)
	info.Company = strings.TrimSpace(info.Company)
	info.Sector = strings.TrimSpace(info.Sector)
	info.Size = strings.TrimSpace(info.Size)
	info.RevenueBand = strings.TrimSpace(info.RevenueBand)
	info.Role = strings.TrimSpace(info.Role)
	return info
}

// validateIntake returns a *domain.ValidationError listing every failing field.
func validateIntake(v *validator.Validate, info domain.UserInfo) error {
	err := v.Struct(info)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &domain.ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "email":
		return "must be a valid email address"
	case "e164":
		return "must be an international phone number"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "invalid"
	}
}
