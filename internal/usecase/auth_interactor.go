package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/GoArmGo/StudentRegistry/internal/core/ports"
	"github.com/GoArmGo/StudentRegistry/internal/domain"
	"github.com/google/uuid"
)

// authUseCase implements AuthUseCase
type authUseCase struct {
	users     ports.UserStorage
	lifecycle *Lifecycle
	hasher    PasswordHasher
	tokens    TokenService
	logger    *slog.Logger
}

// NewAuthUseCase создает новый экземпляр AuthUseCase
func NewAuthUseCase(
	users ports.UserStorage,
	lifecycle *Lifecycle,
	hasher PasswordHasher,
	tokens TokenService,
	logger *slog.Logger,
) AuthUseCase {
	return &authUseCase{
		users:     users,
		lifecycle: lifecycle,
		hasher:    hasher,
		tokens:    tokens,
		logger:    logger,
	}
}

// Register регистрирует студента. Роль всегда student, независимо от входных данных.
func (uc *authUseCase) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := strings.TrimSpace(in.Email)
	if email != "" {
		_, err := uc.users.FindByEmail(ctx, email)
		if err == nil {
			return nil, domain.ErrEmailInUse
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("usecase: check email: %w", err)
		}
	}

	user, err := uc.lifecycle.Create(ctx, &domain.User{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       email,
		Password:    in.Password,
		DateOfBirth: in.DateOfBirth,
		Role:        domain.RoleStudent,
	})
	if err != nil {
		return nil, err
	}

	token, err := uc.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("usecase: issue token: %w", err)
	}

	uc.logger.Info("student registered", "user_id", user.ID, "registration_number", user.RegistrationNumber)
	return &AuthResult{Token: token, User: user}, nil
}

// Login не раскрывает, что именно неверно: email или пароль.
func (uc *authUseCase) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.NewValidationError("Please provide email and password")
	}

	user, err := uc.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("usecase: find user for login: %w", err)
	}
	if !uc.hasher.Verify(password, user.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := uc.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("usecase: issue token: %w", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

// Authenticate возвращает владельца токена. Удалённый пользователь - ErrUnauthorized.
func (uc *authUseCase) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	id, err := uc.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	user, err := uc.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("usecase: load token owner: %w", err)
	}
	return user, nil
}

// GetProfile возвращает профиль, при необходимости дозаполняя QR-код.
func (uc *authUseCase) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := uc.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	uc.lifecycle.EnsureQRCode(ctx, user)
	return user, nil
}

func (uc *authUseCase) RegenerateOwnQRCode(ctx context.Context, userID uuid.UUID) (string, error) {
	return uc.lifecycle.RegenerateQRCode(ctx, userID)
}

// ChangePassword меняет пароль после проверки текущего.
func (uc *authUseCase) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return domain.NewValidationError("Please provide current and new password")
	}

	user, err := uc.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !uc.hasher.Verify(currentPassword, user.Password) {
		return domain.ErrInvalidCredentials
	}

	proposed := *user
	proposed.Password = newPassword
	if _, err := uc.lifecycle.Update(ctx, user, &proposed); err != nil {
		return err
	}

	uc.logger.Info("password changed", "user_id", userID)
	return nil
}
