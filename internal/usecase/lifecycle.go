package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GoArmGo/StudentRegistry/internal/core/ports"
	"github.com/GoArmGo/StudentRegistry/internal/domain"
	"github.com/GoArmGo/StudentRegistry/internal/messaging/payloads"
	"github.com/GoArmGo/StudentRegistry/internal/qrcode"
	"github.com/google/uuid"
)

// saveStep - шаг подготовки записи перед сохранением.
// prior равен nil при создании; шаг может менять только proposed.
type saveStep func(prior, proposed *domain.User) error

// Lifecycle проводит пользователя через создание, обновление и удаление:
// шаги beforeSave, запись в хранилище и поддержание QR-кода в актуальном состоянии.
type Lifecycle struct {
	users   ports.UserStorage
	hasher  PasswordHasher
	regnums RegistrationNumberGenerator
	encoder QREncoder
	jobs    ports.QRCodeJobPublisher // может быть nil
	files   ports.FileStorage        // может быть nil
	now     Clock
	logger  *slog.Logger

	beforeSave []saveStep
}

// NewLifecycle собирает конвейер. jobs и files необязательны.
func NewLifecycle(
	users ports.UserStorage,
	hasher PasswordHasher,
	regnums RegistrationNumberGenerator,
	encoder QREncoder,
	jobs ports.QRCodeJobPublisher,
	files ports.FileStorage,
	logger *slog.Logger,
) *Lifecycle {
	l := &Lifecycle{
		users:   users,
		hasher:  hasher,
		regnums: regnums,
		encoder: encoder,
		jobs:    jobs,
		files:   files,
		now:     time.Now,
		logger:  logger,
	}
	l.beforeSave = []saveStep{
		l.normalize,
		l.assignRegistrationNumber,
		l.validate,
		l.hashPassword,
	}
	return l
}

func (l *Lifecycle) runBeforeSave(prior, proposed *domain.User) error {
	for _, step := range l.beforeSave {
		if err := step(prior, proposed); err != nil {
			return err
		}
	}
	return nil
}

func (l *Lifecycle) normalize(_, proposed *domain.User) error {
	proposed.FirstName = strings.TrimSpace(proposed.FirstName)
	proposed.LastName = strings.TrimSpace(proposed.LastName)
	proposed.Email = strings.TrimSpace(proposed.Email)
	if proposed.Role == "" {
		proposed.Role = domain.RoleStudent
	}
	return nil
}

// assignRegistrationNumber выдаёт номер новому пользователю и перевыпускает его
// при смене роли, чтобы префикс соответствовал роли.
func (l *Lifecycle) assignRegistrationNumber(prior, proposed *domain.User) error {
	roleChanged := prior != nil && prior.Role != proposed.Role
	if proposed.RegistrationNumber != "" && !roleChanged {
		return nil
	}
	number, err := l.regnums.Generate(proposed.Role)
	if err != nil {
		return fmt.Errorf("generate registration number: %w", err)
	}
	proposed.RegistrationNumber = number
	return nil
}

func (l *Lifecycle) validate(_, proposed *domain.User) error {
	return proposed.Validate(l.now())
}

// hashPassword хеширует пароль при создании и при его изменении.
// Пустой пароль при обновлении означает "оставить прежний".
func (l *Lifecycle) hashPassword(prior, proposed *domain.User) error {
	if prior != nil && (proposed.Password == "" || proposed.Password == prior.Password) {
		proposed.Password = prior.Password
		return nil
	}
	if err := domain.ValidatePassword(proposed.Password); err != nil {
		return err
	}
	digest, err := l.hasher.Hash(proposed.Password)
	if err != nil {
		return err
	}
	proposed.Password = digest
	return nil
}

// Create сохраняет нового пользователя и генерирует ему QR-код.
// Ошибка генерации QR не отменяет создание.
func (l *Lifecycle) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := l.runBeforeSave(nil, user); err != nil {
		return nil, err
	}
	if err := l.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return l.reloadWithQRCode(ctx, user.ID, payloads.ReasonCreated)
}

// Update сохраняет изменения и перегенерирует QR-код: updatedAt входит в снимок,
// поэтому любое успешное обновление делает прежний код устаревшим. Прежний код
// сбрасывается вместе с записью; если новый не удалось создать, колонка остаётся
// NULL и код дозаполнится при чтении или воркером.
func (l *Lifecycle) Update(ctx context.Context, prior, proposed *domain.User) (*domain.User, error) {
	proposed.ID = prior.ID
	proposed.CreatedAt = prior.CreatedAt
	proposed.QRCode = nil

	if err := l.runBeforeSave(prior, proposed); err != nil {
		return nil, err
	}
	if err := l.users.Update(ctx, proposed); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return l.reloadWithQRCode(ctx, proposed.ID, payloads.ReasonUpdated)
}

// reloadWithQRCode перечитывает запись, чтобы снимок содержал значения,
// назначенные хранилищем (id, created_at, updated_at).
func (l *Lifecycle) reloadWithQRCode(ctx context.Context, id uuid.UUID, reason string) (*domain.User, error) {
	stored, err := l.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}
	l.attachQRCode(ctx, stored, reason)
	return stored, nil
}

// EnsureQRCode - ленивое заполнение QR-кода на пути чтения. Никогда не возвращает ошибку.
func (l *Lifecycle) EnsureQRCode(ctx context.Context, user *domain.User) {
	if user.HasQRCode() {
		return
	}
	l.attachQRCode(ctx, user, payloads.ReasonBackfill)
}

// attachQRCode генерирует и сохраняет код; при неудаче ставит задачу на повтор.
func (l *Lifecycle) attachQRCode(ctx context.Context, user *domain.User, reason string) bool {
	code, ok := l.encoder.Encode(user.Snapshot())
	if !ok {
		l.logger.Warn("qr code not generated", "user_id", user.ID, "reason", reason)
		l.enqueueRetry(ctx, user.ID, reason)
		return false
	}

	if err := l.users.UpdateQRCode(ctx, user.ID, code); err != nil {
		l.logger.Warn("failed to persist qr code", "user_id", user.ID, "reason", reason, "error", err)
		l.enqueueRetry(ctx, user.ID, reason)
		return false
	}

	user.QRCode = &code
	l.archive(ctx, user.ID, code)
	return true
}

// RegenerateQRCode принудительно пересоздаёт код. В отличие от ленивого пути,
// отсутствие кода здесь - ошибка domain.ErrQRGenerationFailed.
func (l *Lifecycle) RegenerateQRCode(ctx context.Context, id uuid.UUID) (string, error) {
	user, err := l.users.FindByID(ctx, id)
	if err != nil {
		return "", err
	}

	code, ok := l.encoder.Encode(user.Snapshot())
	if !ok {
		return "", domain.ErrQRGenerationFailed
	}
	if err := l.users.UpdateQRCode(ctx, id, code); err != nil {
		return "", fmt.Errorf("store regenerated qr code: %w", err)
	}

	l.archive(ctx, id, code)
	l.logger.Info("qr code regenerated", "user_id", id)
	return code, nil
}

// Delete удаляет пользователя вместе с архивной копией QR-кода.
func (l *Lifecycle) Delete(ctx context.Context, id uuid.UUID) error {
	if err := l.users.Delete(ctx, id); err != nil {
		return err
	}
	if l.files != nil {
		if err := l.files.DeleteFile(ctx, qrObjectKey(id)); err != nil {
			l.logger.Warn("failed to delete archived qr code", "user_id", id, "error", err)
		}
	}
	return nil
}

// BackfillMissingQRCodes проходит по пользователям без кода пачками по batch.
// Пользователи, для которых код не получился, остаются без кода и пропускаются
// смещением, чтобы не блокировать тех, кто идёт за ними.
func (l *Lifecycle) BackfillMissingQRCodes(ctx context.Context, batch int) (int, error) {
	if batch < 1 {
		batch = 1
	}

	total, skipped := 0, 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		users, err := l.users.ListMissingQRCode(ctx, skipped, batch)
		if err != nil {
			return total, fmt.Errorf("list users without qr code: %w", err)
		}

		for _, u := range users {
			if _, err := l.RegenerateQRCode(ctx, u.ID); err != nil {
				// удалённый пользователь и так выпал из выборки
				if !errors.Is(err, domain.ErrUserNotFound) {
					l.logger.Warn("backfill failed for user", "user_id", u.ID, "error", err)
					skipped++
				}
				continue
			}
			total++
		}

		if len(users) < batch {
			if skipped > 0 {
				l.logger.Warn("users left without qr code after backfill", "count", skipped)
			}
			return total, nil
		}
	}
}

func (l *Lifecycle) enqueueRetry(ctx context.Context, id uuid.UUID, reason string) {
	if l.jobs == nil {
		return
	}
	err := l.jobs.PublishQRCodeJob(ctx, payloads.QRCodeJobPayload{UserID: id.String(), Reason: reason})
	if err != nil {
		l.logger.Warn("failed to enqueue qr code job", "user_id", id, "error", err)
	}
}

func (l *Lifecycle) archive(ctx context.Context, id uuid.UUID, code string) {
	if l.files == nil {
		return
	}
	png, err := qrcode.DecodeDataURI(code)
	if err != nil {
		l.logger.Warn("qr code is not an archivable png", "user_id", id, "error", err)
		return
	}
	if _, err := l.files.UploadFile(ctx, qrObjectKey(id), bytes.NewReader(png), "image/png"); err != nil {
		l.logger.Warn("failed to archive qr code", "user_id", id, "error", err)
	}
}

func qrObjectKey(id uuid.UUID) string {
	return fmt.Sprintf("qr-codes/%s.png", id)
}
