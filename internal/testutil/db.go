// Package testutil содержит хелперы для тестов: in-memory БД, фабрику пользователей и сканер QR.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/GoArmGo/StudentRegistry/internal/database/postgres"
	"github.com/GoArmGo/StudentRegistry/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewTestDB открывает изолированную SQLite базу в памяти со схемой users.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: postgres.NowFunc,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&domain.User{}))
	return db
}

// UserOption настраивает тестового пользователя.
type UserOption func(*domain.User)

func WithEmail(email string) UserOption {
	return func(u *domain.User) { u.Email = email }
}

func WithRole(role domain.Role) UserOption {
	return func(u *domain.User) {
		u.Role = role
		if role == domain.RoleAdmin {
			u.RegistrationNumber = "ADM" + u.RegistrationNumber[3:]
		}
	}
}

// WithPassword хеширует пароль так же, как это делает сервис.
func WithPassword(plain string) UserOption {
	return func(u *domain.User) {
		digest, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
		if err != nil {
			panic(err)
		}
		u.Password = string(digest)
	}
}

func WithQRCode(code string) UserOption {
	return func(u *domain.User) { u.QRCode = &code }
}

func WithCreatedAt(at time.Time) UserOption {
	return func(u *domain.User) {
		u.CreatedAt = at
		u.UpdatedAt = at
	}
}

// NewUser собирает валидного студента, не сохраняя его.
func NewUser(opts ...UserOption) *domain.User {
	suffix := uuid.NewString()[:6]
	u := &domain.User{
		ID:                 uuid.New(),
		FirstName:          "Test",
		LastName:           "Student",
		Email:              fmt.Sprintf("student-%s@example.com", suffix),
		RegistrationNumber: fmt.Sprintf("REG-%06X-2025", uuid.New().ID()&0xFFFFFF),
		DateOfBirth:        domain.NewDate(time.Now().Year()-20, time.January, 1),
		Role:               domain.RoleStudent,
	}
	WithPassword("password123")(u)
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// CreateTestUser сохраняет пользователя напрямую в БД, минуя бизнес-логику.
func CreateTestUser(t *testing.T, db *gorm.DB, opts ...UserOption) *domain.User {
	t.Helper()

	u := NewUser(opts...)
	require.NoError(t, db.Create(u).Error)
	return u
}
