package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/StudentRegistry/internal/core/ports"
	"github.com/GoArmGo/StudentRegistry/internal/domain"
	"github.com/google/uuid"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// adminUseCase implements AdminUseCase
type adminUseCase struct {
	users     ports.UserStorage
	lifecycle *Lifecycle
	logger    *slog.Logger
}

// NewAdminUseCase создает новый экземпляр AdminUseCase
func NewAdminUseCase(users ports.UserStorage, lifecycle *Lifecycle, logger *slog.Logger) AdminUseCase {
	return &adminUseCase{
		users:     users,
		lifecycle: lifecycle,
		logger:    logger,
	}
}

// ListUsers возвращает страницу пользователей; страницы нумеруются с 1.
func (uc *adminUseCase) ListUsers(ctx context.Context, page, pageSize int) (*UserPage, error) {
	if page < 1 {
		page = DefaultPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	users, total, err := uc.users.List(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, fmt.Errorf("usecase: list users: %w", err)
	}

	for i := range users {
		uc.lifecycle.EnsureQRCode(ctx, &users[i])
	}

	return &UserPage{
		Items:       users,
		TotalCount:  total,
		TotalPages:  int((total + int64(pageSize) - 1) / int64(pageSize)),
		CurrentPage: page,
	}, nil
}

func (uc *adminUseCase) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := uc.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	uc.lifecycle.EnsureQRCode(ctx, user)
	return user, nil
}

// UpdateUser применяет только непустые поля. Недопустимая роль молча игнорируется.
func (uc *adminUseCase) UpdateUser(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*domain.User, error) {
	prior, err := uc.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	proposed := *prior
	if in.FirstName != "" {
		proposed.FirstName = in.FirstName
	}
	if in.LastName != "" {
		proposed.LastName = in.LastName
	}
	if in.Email != "" {
		proposed.Email = in.Email
	}
	if !in.DateOfBirth.IsZero() {
		proposed.DateOfBirth = in.DateOfBirth
	}
	if role, ok := domain.ParseRole(in.Role); ok {
		proposed.Role = role
	} else if in.Role != "" {
		uc.logger.Info("ignoring invalid role on update", "user_id", id, "role", in.Role)
	}

	updated, err := uc.lifecycle.Update(ctx, prior, &proposed)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("user updated by admin", "user_id", id)
	return updated, nil
}

func (uc *adminUseCase) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return uc.lifecycle.Delete(ctx, id)
}

func (uc *adminUseCase) RegenerateQRCode(ctx context.Context, id uuid.UUID) (string, error) {
	return uc.lifecycle.RegenerateQRCode(ctx, id)
}

// SeedAdmin идемпотентен: если администратор уже есть, возвращает его и false.
func (uc *adminUseCase) SeedAdmin(ctx context.Context, seed AdminSeed) (*domain.User, bool, error) {
	existing, err := uc.users.FindOneByRole(ctx, domain.RoleAdmin)
	if err == nil {
		uc.logger.Info("admin user already exists", "user_id", existing.ID)
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, false, fmt.Errorf("usecase: look up admin: %w", err)
	}

	admin, err := uc.lifecycle.Create(ctx, &domain.User{
		FirstName:   seed.FirstName,
		LastName:    seed.LastName,
		Email:       seed.Email,
		Password:    seed.Password,
		DateOfBirth: seed.DateOfBirth,
		Role:        domain.RoleAdmin,
	})
	if err != nil {
		return nil, false, fmt.Errorf("usecase: seed admin: %w", err)
	}

	uc.logger.Info("admin user seeded", "user_id", admin.ID, "email", admin.Email)
	return admin, true, nil
}
