package imageproc

import (
	"image"
	"image/color"

	"github.com/UnendingLoop/Outpainter/internal/model"
	"github.com/disintegration/imaging"
)

var (
	maskBackground = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	maskHole       = color.NRGBA{R: 0, G: 0, B: 0, A: 255}
)

// Mask строит маску расширенного холста: белый фон и чёрный прямоугольник на месте исходника.
// Прямоугольник занимает [left, left+w) x [top, top+h): дальний край не включается.
// Из исходника читаются только размеры, результат всегда PNG.
func Mask(imageB64 string, m model.Margins) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}

	cfg, err := decodeConfig(imageB64)
	if err != nil {
		return "", err
	}

	canvas := imaging.New(cfg.Width+m.Left+m.Right, cfg.Height+m.Top+m.Bottom, maskBackground)
	hole := imaging.New(cfg.Width, cfg.Height, maskHole)
	canvas = imaging.Paste(canvas, hole, image.Pt(m.Left, m.Top))

	return encodeImage(canvas, imaging.PNG)
}
