package qrcode

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/GoArmGo/StudentRegistry/internal/domain"
	goqrcode "github.com/skip2/go-qrcode"
)

const (
	// DataURIPrefix - префикс встраиваемой PNG-картинки.
	DataURIPrefix = "data:image/png;base64,"
	defaultSize   = 320
)

var ErrNotDataURI = errors.New("not a PNG data URI")

// Encoder превращает снимок пользователя в PNG QR-код.
type Encoder struct {
	size   int
	level  goqrcode.RecoveryLevel
	logger *slog.Logger
}

func NewEncoder(logger *slog.Logger) *Encoder {
	return &Encoder{
		size:   defaultSize,
		level:  goqrcode.Medium,
		logger: logger,
	}
}

// Payload - текстовое содержимое QR-кода: компактный JSON со стабильным порядком ключей.
func Payload(snapshot domain.QRSnapshot) ([]byte, error) {
	return json.Marshal(snapshot)
}

// Encode возвращает data URI с PNG. При любой ошибке возвращает ("", false):
// отсутствие кода не считается фатальным для вызывающего.
func (e *Encoder) Encode(snapshot domain.QRSnapshot) (string, bool) {
	png, err := e.PNG(snapshot)
	if err != nil {
		e.logger.Warn("qr code encoding failed", "user_id", snapshot.ID, "error", err)
		return "", false
	}
	return DataURIPrefix + base64.StdEncoding.EncodeToString(png), true
}

// PNG кодирует снимок в PNG-изображение.
func (e *Encoder) PNG(snapshot domain.QRSnapshot) ([]byte, error) {
	payload, err := Payload(snapshot)
	if err != nil {
		return nil, fmt.Errorf("marshal qr payload: %w", err)
	}
	png, err := goqrcode.Encode(string(payload), e.level, e.size)
	if err != nil {
		return nil, fmt.Errorf("encode qr png: %w", err)
	}
	return png, nil
}

// DecodeDataURI извлекает байты PNG из data URI.
func DecodeDataURI(uri string) ([]byte, error) {
	if !strings.HasPrefix(uri, DataURIPrefix) {
		return nil, ErrNotDataURI
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, DataURIPrefix))
	if err != nil {
		return nil, fmt.Errorf("decode base64 png: %w", err)
	}
	return raw, nil
}
