package ports

import (
	"context"

	"github.com/GoArmGo/StudentRegistry/internal/messaging/payloads"
)

// QRCodeJobPublisher публикует задачи на повторную генерацию QR-кода.
// Используется, когда генерация при записи или чтении не удалась.
type QRCodeJobPublisher interface {
	PublishQRCodeJob(ctx context.Context, payload payloads.QRCodeJobPayload) error
}

// QRCodeJobConsumer используется воркером для получения задач из очереди.
type QRCodeJobConsumer interface {
	// StartConsumingQRCodeJobs начинает прослушивание очереди; handler вызывается для каждого сообщения
	StartConsumingQRCodeJobs(ctx context.Context, handler func(context.Context, payloads.QRCodeJobPayload) error) error
}
