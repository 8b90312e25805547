package ports

import (
	"context"
	"io"

	"github.com/GoArmGo/StudentRegistry/internal/domain"
	"github.com/google/uuid"
)

// UserStorage определяет методы для взаимодействия с хранилищем пользователей.
// Отсутствие записи возвращается как domain.ErrUserNotFound,
// нарушение уникальности - как domain.ErrEmailInUse или domain.ErrDuplicateRegistrationNumber.
type UserStorage interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindOneByRole(ctx context.Context, role domain.Role) (*domain.User, error)
	// List возвращает страницу пользователей, новые первыми, и общее количество.
	List(ctx context.Context, offset, limit int) ([]domain.User, int64, error)
	// ListMissingQRCode возвращает пользователей без QR-кода, старые первыми.
	ListMissingQRCode(ctx context.Context, offset, limit int) ([]domain.User, error)
	// Update перезаписывает и qr_code: nil сбрасывает код.
	Update(ctx context.Context, user *domain.User) error
	// UpdateQRCode сохраняет только qr_code, не трогая updated_at.
	UpdateQRCode(ctx context.Context, id uuid.UUID, qrCode string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// FileStorage - порт для хранения бинарных данных (PNG с QR-кодами) в S3/MinIO.
type FileStorage interface {
	// UploadFile загружает файл в хранилище и возвращает его адрес.
	UploadFile(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)
	DeleteFile(ctx context.Context, key string) error
}

// HealthChecker проверяет доступность базы данных.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
