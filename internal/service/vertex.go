package service

import (
	"context"
	"fmt"

	"github.com/UnendingLoop/Outpainter/internal/imageproc"
	"github.com/UnendingLoop/Outpainter/internal/model"
	"github.com/UnendingLoop/Outpainter/internal/mwlogger"
	"github.com/disintegration/imaging"
)

type VertexService struct {
	editor       ImageEditor
	modelName    string
	opaqueFormat imaging.Format
}

func NewVertexService(editor ImageEditor, modelName string, opaqueFormat imaging.Format) *VertexService {
	if modelName == "" {
		modelName = model.DefaultVertexModel
	}
	return &VertexService{
		editor:       editor,
		modelName:    modelName,
		opaqueFormat: opaqueFormat,
	}
}

func (s VertexService) Outpaint(ctx context.Context, req *model.VertexOutpaintRequest) (*model.Envelope, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	margins := req.Margins()

	// расширяем холст и строим маску по тем же отступам
	padded, format, err := imageproc.Pad(req.InputImageB64, margins, s.opaqueFormat)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to pad reference image")
		return nil, err
	}
	mask, err := imageproc.Mask(req.InputImageB64, margins)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to build mask image")
		return nil, err
	}

	refBytes, err := imageproc.DecodeBase64(padded)
	if err != nil {
		return nil, err
	}
	maskBytes, err := imageproc.DecodeBase64(mask)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("model", s.modelName).
		Interface("margins", margins).
		Msg("Sending outpaint request to Vertex AI")

	res, err := s.editor.EditOutpaint(ctx, &model.VertexEditRequest{
		ReferenceImage: refBytes,
		ReferenceMIME:  model.GetCType[format],
		MaskImage:      maskBytes,
		Prompt:         req.Prompt,
		ModelName:      s.modelName,
		MaskDilation:   req.Dilation(),
	})
	if err != nil {
		logger.Error().Err(err).Msg("Vertex AI API call failed")
		return nil, fmt.Errorf("%w: vertex AI API call failed: %v", model.ErrBackend, err)
	}

	return model.NewEnvelope(msgOutpainted, map[string]any{
		"generated_image_b64": imageproc.EncodeBase64(res.Data),
		"mime_type":           res.MIMEType,
		"success":             true,
	}), nil
}
