// Package service provides business-logic for the app: outpaint adapters for both backends
package service

import (
	"context"
	"io"

	"github.com/UnendingLoop/Outpainter/internal/model"
)

const msgOutpainted = "Image outpainted successfully"

// ImageEditor - контракт облачного бэкенда (Vertex AI)
type ImageEditor interface {
	EditOutpaint(ctx context.Context, req *model.VertexEditRequest) (*model.GeneratedImage, error)
}

// Predictor - контракт inference-graph бэкенда (gradio)
type Predictor interface {
	Predict(ctx context.Context, api string, params []any) (any, error)
}

// ImageStorage - контракт для чтения результатов, которые gradio положил на диск
type ImageStorage interface {
	Delete(ctx context.Context, key string) error
	Get(ctx context.Context, key string) (output io.ReadCloser, ctype string, err error)
}
