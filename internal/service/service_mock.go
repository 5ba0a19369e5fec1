package service

import (
	"context"
	"io"

	"github.com/UnendingLoop/Outpainter/internal/model"
)

// MOCK VERTEX

type mockEditor struct {
	editFn func(ctx context.Context, req *model.VertexEditRequest) (*model.GeneratedImage, error)
}

func (m *mockEditor) EditOutpaint(ctx context.Context, req *model.VertexEditRequest) (*model.GeneratedImage, error) {
	return m.editFn(ctx, req)
}

// MOCK GRADIO

type mockPredictor struct {
	predictFn func(ctx context.Context, api string, params []any) (any, error)
}

func (m *mockPredictor) Predict(ctx context.Context, api string, params []any) (any, error) {
	return m.predictFn(ctx, api, params)
}

// MOCK STORAGE

type mockStorage struct {
	getFn    func(ctx context.Context, key string) (io.ReadCloser, string, error)
	deleteFn func(ctx context.Context, key string) error
}

func (m *mockStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	return m.getFn(ctx, key)
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	return m.deleteFn(ctx, key)
}
