package testutil

import (
	"bytes"
	"encoding/json"
	"image/png"
	"testing"

	"github.com/GoArmGo/StudentRegistry/internal/domain"
	"github.com/GoArmGo/StudentRegistry/internal/qrcode"
	"github.com/makiuchi-d/gozxing"
	zxingqr "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/require"
)

// DecodeQRText сканирует PNG и возвращает закодированный текст.
func DecodeQRText(t *testing.T, pngBytes []byte) string {
	t.Helper()

	img, err := png.Decode(bytes.NewReader(pngBytes))
	require.NoError(t, err)

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	require.NoError(t, err)

	result, err := zxingqr.NewQRCodeReader().Decode(bmp, nil)
	require.NoError(t, err)
	return result.GetText()
}

// DecodeQRSnapshot разбирает data URI, сохранённый у пользователя, обратно в снимок.
func DecodeQRSnapshot(t *testing.T, dataURI string) domain.QRSnapshot {
	t.Helper()

	raw, err := qrcode.DecodeDataURI(dataURI)
	require.NoError(t, err)

	var snapshot domain.QRSnapshot
	require.NoError(t, json.Unmarshal([]byte(DecodeQRText(t, raw)), &snapshot))
	return snapshot
}
