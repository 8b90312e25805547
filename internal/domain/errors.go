package domain

import "errors"

var (
	ErrValidation                  = errors.New("validation failed")
	ErrEmailInUse                  = errors.New("email already in use")
	ErrDuplicateRegistrationNumber = errors.New("registration number already in use")
	ErrInvalidCredentials          = errors.New("invalid email or password")
	ErrUnauthorized                = errors.New("not authorized")
	ErrForbidden                   = errors.New("forbidden")
	ErrUserNotFound                = errors.New("user not found")
	ErrQRGenerationFailed          = errors.New("failed to generate QR code")
)

// ValidationError несёт человекочитаемое сообщение для клиента.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError - короткий конструктор.
func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}
