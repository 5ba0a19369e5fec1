package transport

import (
	"context"

	"github.com/UnendingLoop/Outpainter/internal/model"
	"github.com/gin-gonic/gin"
)

type mockVertexService struct {
	outpaintFn func(ctx context.Context, req *model.VertexOutpaintRequest) (*model.Envelope, error)
}

func (m *mockVertexService) Outpaint(ctx context.Context, req *model.VertexOutpaintRequest) (*model.Envelope, error) {
	return m.outpaintFn(ctx, req)
}

type mockGradioService struct {
	outpaintFn func(ctx context.Context, req *model.GradioOutpaintRequest) (*model.Envelope, error)
}

func (m *mockGradioService) Outpaint(ctx context.Context, req *model.GradioOutpaintRequest) (*model.Envelope, error) {
	return m.outpaintFn(ctx, req)
}

type mockCanvasService struct {
	padFn  func(ctx context.Context, req *model.CanvasRequest) (*model.Envelope, error)
	maskFn func(ctx context.Context, req *model.CanvasRequest) (*model.Envelope, error)
}

func (m *mockCanvasService) Pad(ctx context.Context, req *model.CanvasRequest) (*model.Envelope, error) {
	return m.padFn(ctx, req)
}

func (m *mockCanvasService) Mask(ctx context.Context, req *model.CanvasRequest) (*model.Envelope, error) {
	return m.maskFn(ctx, req)
}

func init() {
	gin.SetMode(gin.TestMode)
}
