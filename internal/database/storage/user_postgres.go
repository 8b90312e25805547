package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GoArmGo/StudentRegistry/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolationCode = "23505"

// столбцы, которые перезаписывает Update. qr_code входит сюда, чтобы
// обновление могло сбросить устаревший код в NULL.
var updatableColumns = []string{
	"first_name", "last_name", "email", "password",
	"registration_number", "date_of_birth", "role", "qr_code",
}

// UserStorage реализует интерфейс ports.UserStorage с использованием GORM
type UserStorage struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewUserStorage создает новый экземпляр UserStorage
func NewUserStorage(db *gorm.DB, logger *slog.Logger) *UserStorage {
	return &UserStorage{db: db, logger: logger}
}

// Create сохраняет нового пользователя; id назначается, если не задан.
func (s *UserStorage) Create(ctx context.Context, user *domain.User) error {
	start := time.Now()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		err = translateError(err)
		s.logger.Error("failed to insert user", "email", user.Email, "error", err)
		return fmt.Errorf("insert user: %w", err)
	}

	s.logger.Info("user created",
		"user_id", user.ID,
		"role", user.Role,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (s *UserStorage) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.findOne(ctx, "id = ?", id)
}

func (s *UserStorage) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findOne(ctx, "email = ?", email)
}

// FindOneByRole возвращает самого раннего пользователя с указанной ролью.
func (s *UserStorage) FindOneByRole(ctx context.Context, role domain.Role) (*domain.User, error) {
	return s.findOne(ctx, "role = ?", role)
}

func (s *UserStorage) findOne(ctx context.Context, query string, args ...interface{}) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Where(query, args...).Order("created_at ASC").First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error("failed to select user", "query", query, "error", err)
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &user, nil
}

// List получает страницу пользователей, отсортированных по created_at DESC
func (s *UserStorage) List(ctx context.Context, offset, limit int) ([]domain.User, int64, error) {
	start := time.Now()

	var total int64
	if err := s.db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
		s.logger.Error("failed to count users", "error", err)
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	users := make([]domain.User, 0, limit)
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		s.logger.Error("failed to list users", "offset", offset, "limit", limit, "error", err)
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	s.logger.Debug("users listed",
		"offset", offset,
		"limit", limit,
		"returned", len(users),
		"total", total,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return users, total, nil
}

// ListMissingQRCode возвращает до limit пользователей без QR-кода, старые первыми,
// пропустив первые offset.
func (s *UserStorage) ListMissingQRCode(ctx context.Context, offset, limit int) ([]domain.User, error) {
	var users []domain.User
	err := s.db.WithContext(ctx).
		Where("qr_code IS NULL OR qr_code = ''").
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		s.logger.Error("failed to list users without qr code", "error", err)
		return nil, fmt.Errorf("list users without qr code: %w", err)
	}
	return users, nil
}

// Update перезаписывает изменяемые поля, включая qr_code (nil пишется как NULL).
// updated_at проставляет GORM.
func (s *UserStorage) Update(ctx context.Context, user *domain.User) error {
	start := time.Now()

	result := s.db.WithContext(ctx).
		Model(user).
		Select(updatableColumns).
		Updates(user)
	if result.Error != nil {
		err := translateError(result.Error)
		s.logger.Error("failed to update user", "user_id", user.ID, "error", err)
		return fmt.Errorf("update user: %w", err)
	}
	if result.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}

	s.logger.Info("user updated", "user_id", user.ID, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// UpdateQRCode пишет только колонку qr_code, без хуков и без изменения updated_at.
func (s *UserStorage) UpdateQRCode(ctx context.Context, id uuid.UUID, qrCode string) error {
	result := s.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		UpdateColumn("qr_code", qrCode)
	if result.Error != nil {
		s.logger.Error("failed to store qr code", "user_id", id, "error", result.Error)
		return fmt.Errorf("update qr code: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Delete удаляет пользователя безвозвратно.
func (s *UserStorage) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&domain.User{}, "id = ?", id)
	if result.Error != nil {
		s.logger.Error("failed to delete user", "user_id", id, "error", result.Error)
		return fmt.Errorf("delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}

	s.logger.Info("user deleted", "user_id", id)
	return nil
}

// translateError переводит нарушение уникальности в доменную ошибку.
// PostgreSQL отдаёт имя ограничения, SQLite - текст "UNIQUE constraint failed: users.email".
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		if dup := duplicateFor(pgErr.ConstraintName + " " + pgErr.Detail); dup != nil {
			return dup
		}
		return err
	}

	if msg := err.Error(); strings.Contains(msg, "UNIQUE constraint failed") {
		if dup := duplicateFor(msg); dup != nil {
			return dup
		}
	}
	return err
}

func duplicateFor(source string) error {
	switch {
	case strings.Contains(source, "registration_number"):
		return domain.ErrDuplicateRegistrationNumber
	case strings.Contains(source, "email"):
		return domain.ErrEmailInUse
	default:
		return nil
	}
}
