// Package imageproc provides canvas operations for outpainting: black-border padding, mask generation and base64 codec.
package imageproc

import (
	"image"
	"image/color"

	"github.com/UnendingLoop/Outpainter/internal/model"
	"github.com/disintegration/imaging"
)

var padFill = color.NRGBA{R: 0, G: 0, B: 0, A: 255}

// Pad расширяет холст на заданные отступы, заливая новую область чёрным, и кладёт исходник в точку (left, top).
// Картинки с прозрачностью всегда кодируются в PNG, остальные - в opaqueFormat (PNG или JPEG).
func Pad(imageB64 string, m model.Margins, opaqueFormat imaging.Format) (string, imaging.Format, error) {
	// отступы проверяем до декодирования
	if err := m.Validate(); err != nil {
		return "", -1, err
	}

	src, err := decodeImage(imageB64)
	if err != nil {
		return "", -1, err
	}

	format := opaqueFormat
	if format != imaging.JPEG {
		format = imaging.PNG
	}
	// смотрим на декодированную картинку: у GIF прозрачный индекс применяется только к палитре кадра
	if hasTransparency(src.ColorModel()) {
		format = imaging.PNG
	}

	b := src.Bounds()
	canvas := imaging.New(b.Dx()+m.Left+m.Right, b.Dy()+m.Top+m.Bottom, padFill)

	// Paste переносит пиксели как есть, без смешивания; палитра конвертируется в NRGBA
	canvas = imaging.Paste(canvas, src, image.Pt(m.Left, m.Top))

	res, err := encodeImage(canvas, format)
	if err != nil {
		return "", -1, err
	}
	return res, format, nil
}

// hasTransparency - есть ли у исходника альфа-канал или прозрачный цвет в палитре
func hasTransparency(cm color.Model) bool {
	if p, ok := cm.(color.Palette); ok {
		for _, c := range p {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}
		return false
	}

	switch cm {
	case color.NRGBAModel, color.NRGBA64Model, color.NYCbCrAModel, color.AlphaModel, color.Alpha16Model:
		return true
	}
	return false
}
