// Package transport provides methods for processing requests from endpoints
package transport

import (
	"context"
	"fmt"

	"github.com/UnendingLoop/Outpainter/internal/model"
	"github.com/wb-go/wbf/ginext"
)

type OutpaintHandler struct {
	vertex VertexService
	gradio GradioService
	canvas CanvasService
}

type VertexService interface {
	Outpaint(ctx context.Context, req *model.VertexOutpaintRequest) (*model.Envelope, error)
}

type GradioService interface {
	Outpaint(ctx context.Context, req *model.GradioOutpaintRequest) (*model.Envelope, error)
}

type CanvasService interface {
	Pad(ctx context.Context, req *model.CanvasRequest) (*model.Envelope, error)  // только расширенный холст
	Mask(ctx context.Context, req *model.CanvasRequest) (*model.Envelope, error) // только маска
}

func NewOutpaintHandler(vertex VertexService, gradio GradioService, canvas CanvasService) *OutpaintHandler {
	return &OutpaintHandler{
		vertex: vertex,
		gradio: gradio,
		canvas: canvas,
	}
}

func (h OutpaintHandler) SimplePinger(ctx *ginext.Context) {
	ctx.JSON(200, map[string]string{"message": "pong"})
}

func (h OutpaintHandler) VertexOutpaint(ctx *ginext.Context) {
	var req model.VertexOutpaintRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, bindError(err))
		return
	}

	res, err := h.vertex.Outpaint(ctx.Request.Context(), &req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(200, res)
}

func (h OutpaintHandler) GradioOutpaint(ctx *ginext.Context) {
	var payload model.GradioOutpaintPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		respondError(ctx, bindError(err))
		return
	}

	// приводим url/image к одному варианту источника и проставляем дефолты
	req, err := payload.Normalize()
	if err != nil {
		respondError(ctx, err)
		return
	}

	res, err := h.gradio.Outpaint(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(200, res)
}

func (h OutpaintHandler) CanvasPad(ctx *ginext.Context) {
	h.canvasOp(ctx, h.canvas.Pad)
}

func (h OutpaintHandler) CanvasMask(ctx *ginext.Context) {
	h.canvasOp(ctx, h.canvas.Mask)
}

func (h OutpaintHandler) canvasOp(ctx *ginext.Context, op func(context.Context, *model.CanvasRequest) (*model.Envelope, error)) {
	var req model.CanvasRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, bindError(err))
		return
	}

	res, err := op(ctx.Request.Context(), &req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(200, res)
}

func bindError(err error) error {
	return fmt.Errorf("%w: %v", model.ErrValidation, err)
}
