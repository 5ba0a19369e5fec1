package imageproc

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	"github.com/UnendingLoop/Outpainter/internal/model"
	"github.com/disintegration/imaging"

	// регистрируем дополнительные декодеры для image.Decode
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeBase64 декодирует base64-строку в байты. Допускается префикс data URI и переносы строк.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	s = strings.NewReplacer("\n", "", "\r", "", " ", "").Replace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty input", model.ErrDecode)
	}

	enc := base64.StdEncoding
	if !strings.HasSuffix(s, "=") && len(s)%4 != 0 {
		enc = base64.RawStdEncoding
	}

	data, err := enc.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDecode, err)
	}
	return data, nil
}

func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// decodeImage - base64 -> картинка в исходной цветовой модели (нужна для определения прозрачности)
func decodeImage(s string) (image.Image, error) {
	data, err := DecodeBase64(s)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrImageFormat, err)
	}
	return img, nil
}

// decodeConfig - читаем только размеры, пиксели не нужны
func decodeConfig(s string) (image.Config, error) {
	data, err := DecodeBase64(s)
	if err != nil {
		return image.Config{}, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, fmt.Errorf("%w: %v", model.ErrImageFormat, err)
	}
	return cfg, nil
}

func encodeImage(img image.Image, format imaging.Format) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format); err != nil {
		return "", fmt.Errorf("failed to ENcode result image: %w", err)
	}
	return EncodeBase64(buf.Bytes()), nil
}
