package service

import (
	"context"

	"github.com/UnendingLoop/Outpainter/internal/imageproc"
	"github.com/UnendingLoop/Outpainter/internal/model"
	"github.com/UnendingLoop/Outpainter/internal/mwlogger"
	"github.com/disintegration/imaging"
)

// CanvasService отдаёт промежуточные картинки (расширенный холст и маску) без вызова бэкендов
type CanvasService struct {
	opaqueFormat imaging.Format
}

func NewCanvasService(opaqueFormat imaging.Format) *CanvasService {
	return &CanvasService{opaqueFormat: opaqueFormat}
}

func (s CanvasService) Pad(ctx context.Context, req *model.CanvasRequest) (*model.Envelope, error) {
	padded, format, err := imageproc.Pad(req.InputImageB64, req.Margins(), s.opaqueFormat)
	if err != nil {
		logger := mwlogger.LoggerFromContext(ctx)
		logger.Warn().Err(err).Msg("Failed to pad image")
		return nil, err
	}
	return model.NewEnvelope("Canvas padded successfully", map[string]any{
		"image_b64": padded,
		"mime_type": model.GetCType[format],
	}), nil
}

func (s CanvasService) Mask(ctx context.Context, req *model.CanvasRequest) (*model.Envelope, error) {
	mask, err := imageproc.Mask(req.InputImageB64, req.Margins())
	if err != nil {
		logger := mwlogger.LoggerFromContext(ctx)
		logger.Warn().Err(err).Msg("Failed to build mask")
		return nil, err
	}
	return model.NewEnvelope("Mask built successfully", map[string]any{
		"image_b64": mask,
		"mime_type": model.PNG,
	}), nil
}
