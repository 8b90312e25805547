package usecase

import (
	"context"
	"time"

	"github.com/GoArmGo/StudentRegistry/internal/domain"
	"github.com/google/uuid"
)

// PasswordHasher - одностороннее хеширование паролей.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

// TokenService выпускает и проверяет bearer-токены.
type TokenService interface {
	Issue(userID uuid.UUID) (string, error)
	Parse(token string) (uuid.UUID, error)
}

// RegistrationNumberGenerator выдаёт регистрационные номера по роли.
type RegistrationNumberGenerator interface {
	Generate(role domain.Role) (string, error)
}

// QREncoder кодирует снимок пользователя; false означает, что код не получен.
type QREncoder interface {
	Encode(snapshot domain.QRSnapshot) (string, bool)
}

// RegisterInput - данные для самостоятельной регистрации студента.
type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	DateOfBirth domain.Date
}

// AuthResult - токен и пользователь без пароля.
type AuthResult struct {
	Token string
	User  *domain.User
}

// UpdateUserInput - частичное обновление администратором.
// Пустые значения означают "оставить как есть".
type UpdateUserInput struct {
	FirstName   string
	LastName    string
	Email       string
	DateOfBirth domain.Date
	Role        string
}

// UserPage - страница списка пользователей.
type UserPage struct {
	Items       []domain.User
	TotalCount  int64
	TotalPages  int
	CurrentPage int
}

// AdminSeed описывает администратора, создаваемого при старте.
type AdminSeed struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	DateOfBirth domain.Date
}

// AuthUseCase определяет операции, доступные самому пользователю.
type AuthUseCase interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// Authenticate разрешает токен в пользователя; используется middleware.
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	RegenerateOwnQRCode(ctx context.Context, userID uuid.UUID) (string, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
}

// AdminUseCase определяет операции администратора над пользователями.
type AdminUseCase interface {
	ListUsers(ctx context.Context, page, pageSize int) (*UserPage, error)
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*domain.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	RegenerateQRCode(ctx context.Context, id uuid.UUID) (string, error)
	// SeedAdmin создаёт администратора, если в системе его ещё нет.
	SeedAdmin(ctx context.Context, seed AdminSeed) (*domain.User, bool, error)
}

// Clock позволяет подменять текущее время в тестах.
type Clock func() time.Time
