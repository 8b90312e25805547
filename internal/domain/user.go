// internal/domain/user.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role определяет роль пользователя в системе.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// IsValid сообщает, является ли роль одной из допустимых.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleStudent
}

// ParseRole возвращает роль, если строка совпадает с одним из допустимых значений.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	if !r.IsValid() {
		return "", false
	}
	return r, true
}

// User представляет модель пользователя (студента или администратора).
// Соответствует таблице 'users' в базе данных.
type User struct {
	ID                 uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	FirstName          string    `json:"firstName" gorm:"not null" validate:"required"`
	LastName           string    `json:"lastName" gorm:"not null" validate:"required"`
	Email              string    `json:"email" gorm:"not null;uniqueIndex:users_email_key" validate:"required,email"`
	Password           string    `json:"-" gorm:"not null"`
	RegistrationNumber string    `json:"registrationNumber" gorm:"not null;uniqueIndex:users_registration_number_key" validate:"required"`
	DateOfBirth        Date      `json:"dateOfBirth" gorm:"not null"`
	Role               Role      `json:"role" gorm:"type:varchar(16);not null;default:'student'" validate:"required,oneof=admin student"`
	QRCode             *string   `json:"qrCode" gorm:"type:text"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// HasQRCode сообщает, есть ли у пользователя сохранённый QR-код.
func (u *User) HasQRCode() bool {
	return u.QRCode != nil && *u.QRCode != ""
}

// snapshotTimeLayout - UTC с миллисекундами, как отдаёт API.
const snapshotTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// QRSnapshot - набор полей, которые кодируются в QR-код.
// Порядок полей структуры задаёт порядок ключей в JSON.
type QRSnapshot struct {
	ID                 string `json:"id"`
	FirstName          string `json:"firstName"`
	LastName           string `json:"lastName"`
	Email              string `json:"email"`
	RegistrationNumber string `json:"registrationNumber"`
	Role               Role   `json:"role"`
	DateOfBirth        string `json:"dateOfBirth"`
	CreatedAt          string `json:"createdAt"`
	UpdatedAt          string `json:"updatedAt"`
}

// Snapshot фиксирует текущие идентифицирующие поля пользователя.
func (u *User) Snapshot() QRSnapshot {
	return QRSnapshot{
		ID:                 u.ID.String(),
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Email:              u.Email,
		RegistrationNumber: u.RegistrationNumber,
		Role:               u.Role,
		DateOfBirth:        u.DateOfBirth.String(),
		CreatedAt:          u.CreatedAt.UTC().Format(snapshotTimeLayout),
		UpdatedAt:          u.UpdatedAt.UTC().Format(snapshotTimeLayout),
	}
}
