package service

import (
	"context"
	"fmt"
	"io"

	"github.com/UnendingLoop/Outpainter/internal/imageproc"
	"github.com/UnendingLoop/Outpainter/internal/model"
	"github.com/UnendingLoop/Outpainter/internal/mwlogger"
)

type GradioService struct {
	predictor Predictor
	storage   ImageStorage
	apiName   string
}

func NewGradioService(pred Predictor, strg ImageStorage, apiName string) *GradioService {
	if apiName == "" {
		apiName = model.DefaultGradioAPIName
	}
	return &GradioService{
		predictor: pred,
		storage:   strg,
		apiName:   apiName,
	}
}

func (s GradioService) Outpaint(ctx context.Context, req *model.GradioOutpaintRequest) (*model.Envelope, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	image, err := toFileData(req.Source)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("api", s.apiName).
		Int("width", req.Width).
		Int("height", req.Height).
		Msg("Starting outpainting process on gradio")

	// порядок параметров соответствует сигнатуре эндпоинта
	res, err := s.predictor.Predict(ctx, s.apiName, []any{
		image,
		req.Width,
		req.Height,
		req.OverlapPercentage,
		req.NumInferenceSteps,
		req.ResizeOption,
		req.CustomResizePercentage,
		req.Prompt,
		req.Alignment,
		req.OverlapLeft,
		req.OverlapRight,
		req.OverlapTop,
		req.OverlapBottom,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Gradio API call failed")
		return nil, backendErr(err)
	}

	paths, err := resultPaths(res)
	if err != nil {
		logger.Error().Err(err).Interface("result", res).Msg("Unexpected gradio result")
		return nil, backendErr(err)
	}
	defer s.cleanup(ctx, paths)

	encoded, err := s.readBase64(ctx, paths[0])
	if err != nil {
		logger.Error().Err(err).Str("path", paths[0]).Msg("Failed to read gradio result file")
		return nil, backendErr(err)
	}

	return model.NewEnvelope(msgOutpainted, map[string]any{
		"generated_image_b64": encoded,
		"success":             true,
	}), nil
}

func (s GradioService) readBase64(ctx context.Context, path string) (string, error) {
	r, _, err := s.storage.Get(ctx, path)
	if err != nil {
		return "", err
	}
	defer closeFileFlow(r)

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return imageproc.EncodeBase64(data), nil
}

// cleanup удаляет скачанные файлы результата после ответа
func (s GradioService) cleanup(ctx context.Context, paths []string) {
	logger := mwlogger.LoggerFromContext(ctx)
	for _, p := range paths {
		if err := s.storage.Delete(ctx, p); err != nil {
			logger.Warn().Err(err).Str("path", p).Msg("Failed to remove gradio result file")
		}
	}
}

func backendErr(err error) error {
	return fmt.Errorf("%w: gradio AI API call or image processing failed: %v", model.ErrBackend, err)
}
