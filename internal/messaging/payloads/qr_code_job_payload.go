package payloads

// Причины постановки задачи в очередь.
const (
	ReasonCreated  = "created"
	ReasonUpdated  = "updated"
	ReasonBackfill = "backfill"
)

// QRCodeJobPayload - задача на перегенерацию QR-кода пользователя через RabbitMQ.
type QRCodeJobPayload struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}
