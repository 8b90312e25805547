package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/StudentRegistry/internal/domain"
	"github.com/GoArmGo/StudentRegistry/internal/messaging/payloads"
	"github.com/GoArmGo/StudentRegistry/internal/usecase"
	"github.com/google/uuid"
)

// qrCodeRegenerator - часть Lifecycle, нужная обработчику задач.
type qrCodeRegenerator interface {
	RegenerateQRCode(ctx context.Context, id uuid.UUID) (string, error)
}

// runWorker дозаполняет QR-коды, которых нет в базе, а затем обрабатывает
// задачи из RabbitMQ до отмены ctx.
func (a *App) runWorker(ctx context.Context) error {
	generated, err := a.lifecycle.BackfillMissingQRCodes(ctx, a.config.WorkerSweepBatch)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("backfill qr codes: %w", err)
	}
	a.logger.Info("qr code backfill finished", "generated", generated)

	if a.consumer == nil {
		a.logger.Info("RABBITMQ_URL is not set, worker exits after backfill")
		return nil
	}

	if err := a.consumer.StartConsumingQRCodeJobs(ctx, newQRCodeJobHandler(a.lifecycle, a.logger)); err != nil {
		return fmt.Errorf("start rabbitmq consumer: %w", err)
	}
	a.logger.Info("worker waiting for qr code jobs")

	<-ctx.Done()
	a.logger.Info("worker stopped")
	return nil
}

// newQRCodeJobHandler возвращает обработчик задачи. Ошибка возвращает сообщение
// в очередь, поэтому задачи, которые не выполнятся и при повторе, подтверждаются.
func newQRCodeJobHandler(regen qrCodeRegenerator, logger *slog.Logger) func(context.Context, payloads.QRCodeJobPayload) error {
	return func(ctx context.Context, job payloads.QRCodeJobPayload) error {
		id, err := uuid.Parse(job.UserID)
		if err != nil {
			logger.Warn("dropping qr code job with invalid user id", "user_id", job.UserID)
			return nil
		}

		_, err = regen.RegenerateQRCode(ctx, id)
		switch {
		case err == nil:
			logger.Info("qr code job done", "user_id", id, "reason", job.Reason)
			return nil
		case errors.Is(err, domain.ErrUserNotFound):
			logger.Info("dropping qr code job for deleted user", "user_id", id)
			return nil
		case errors.Is(err, domain.ErrQRGenerationFailed):
			logger.Warn("dropping qr code job, payload cannot be encoded", "user_id", id)
			return nil
		default:
			return err
		}
	}
}

var _ qrCodeRegenerator = (*usecase.Lifecycle)(nil)
