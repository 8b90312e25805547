package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	MinStudentAge     = 10
	MaxStudentAge     = 30
	MinPasswordLength = 6
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// в сообщениях используем имена полей из JSON
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate проверяет поля пользователя и возрастное ограничение на момент now.
// Для администраторов возраст не проверяется.
func (u *User) Validate(now time.Time) error {
	if err := validate.Struct(u); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return NewValidationError(fieldMessage(fieldErrs[0]))
		}
		return fmt.Errorf("validate user: %w", err)
	}

	if u.DateOfBirth.IsZero() {
		return NewValidationError("dateOfBirth is required")
	}
	if u.Role == RoleAdmin {
		return nil
	}
	if age := u.DateOfBirth.AgeAt(now); age < MinStudentAge || age > MaxStudentAge {
		return NewValidationError(fmt.Sprintf("Age must be between %d and %d years", MinStudentAge, MaxStudentAge))
	}
	return nil
}

// ValidatePassword проверяет пароль в открытом виде до хеширования.
func ValidatePassword(plain string) error {
	if plain == "" {
		return NewValidationError("password is required")
	}
	if len(plain) < MinPasswordLength {
		return NewValidationError(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
