package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/UnendingLoop/Outpainter/internal/backend/gradio"
	"github.com/UnendingLoop/Outpainter/internal/model"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

// хелпер: красный квадрат size*size в base64 PNG
func redSquareB64(t *testing.T, size int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

// VERTEX - SUCCESS
func TestVertexService_Outpaint_OK(t *testing.T) {
	editor := &mockEditor{
		editFn: func(ctx context.Context, req *model.VertexEditRequest) (*model.GeneratedImage, error) {
			require.Equal(t, model.DefaultVertexModel, req.ModelName)
			require.Equal(t, "sunset", req.Prompt)
			require.Equal(t, model.DefaultMaskDilation, req.MaskDilation)
			require.Equal(t, model.PNG, req.ReferenceMIME)

			ref := decodePNG(t, req.ReferenceImage)
			require.Equal(t, image.Rect(0, 0, 4, 2), ref.Bounds())
			mask := decodePNG(t, req.MaskImage)
			require.Equal(t, image.Rect(0, 0, 4, 2), mask.Bounds())

			return &model.GeneratedImage{Data: []byte("generated"), MIMEType: model.PNG}, nil
		},
	}

	svc := NewVertexService(editor, "", imaging.PNG)
	env, err := svc.Outpaint(context.Background(), &model.VertexOutpaintRequest{
		InputImageB64: redSquareB64(t, 2),
		Prompt:        "sunset",
		LeftPixels:    1,
		RightPixels:   1,
	})
	require.NoError(t, err)
	require.NotNil(t, env.Message)
	require.Equal(t, msgOutpainted, *env.Message)
	require.Equal(t, base64.StdEncoding.EncodeToString([]byte("generated")), env.Data["generated_image_b64"])
	require.Equal(t, model.PNG, env.Data["mime_type"])
	require.Equal(t, true, env.Data["success"])
}

// VERTEX - CUSTOM DILATION
func TestVertexService_Outpaint_CustomDilation(t *testing.T) {
	dilation := 0.2
	editor := &mockEditor{
		editFn: func(ctx context.Context, req *model.VertexEditRequest) (*model.GeneratedImage, error) {
			require.Equal(t, 0.2, req.MaskDilation)
			require.Equal(t, "imagen-custom", req.ModelName)
			return &model.GeneratedImage{Data: []byte("x"), MIMEType: model.PNG}, nil
		},
	}

	svc := NewVertexService(editor, "imagen-custom", imaging.PNG)
	_, err := svc.Outpaint(context.Background(), &model.VertexOutpaintRequest{
		InputImageB64: redSquareB64(t, 2),
		MaskDilation:  &dilation,
	})
	require.NoError(t, err)
}

// VERTEX - INPUT ERRORS NEVER REACH THE BACKEND
func TestVertexService_Outpaint_InputErrors(t *testing.T) {
	editor := &mockEditor{
		editFn: func(ctx context.Context, req *model.VertexEditRequest) (*model.GeneratedImage, error) {
			t.Fatal("backend must not be called")
			return nil, nil
		},
	}
	svc := NewVertexService(editor, "", imaging.PNG)

	_, err := svc.Outpaint(context.Background(), &model.VertexOutpaintRequest{InputImageB64: "%%%"})
	require.ErrorIs(t, err, model.ErrDecode)

	_, err = svc.Outpaint(context.Background(), &model.VertexOutpaintRequest{
		InputImageB64: redSquareB64(t, 2),
		TopPixels:     -1,
	})
	require.ErrorIs(t, err, model.ErrValidation)
}

// VERTEX - BACKEND FAIL
func TestVertexService_Outpaint_BackendError(t *testing.T) {
	editor := &mockEditor{
		editFn: func(ctx context.Context, req *model.VertexEditRequest) (*model.GeneratedImage, error) {
			return nil, errors.New("permission denied")
		},
	}
	svc := NewVertexService(editor, "", imaging.PNG)

	_, err := svc.Outpaint(context.Background(), &model.VertexOutpaintRequest{InputImageB64: redSquareB64(t, 2)})
	require.ErrorIs(t, err, model.ErrBackend)
	require.Contains(t, err.Error(), "permission denied")
}

func gradioRequest(src model.ImageSource) *model.GradioOutpaintRequest {
	return &model.GradioOutpaintRequest{
		Source:                 src,
		Width:                  720,
		Height:                 1280,
		OverlapPercentage:      10,
		NumInferenceSteps:      8,
		ResizeOption:           model.DefaultResizeOption,
		CustomResizePercentage: model.DefaultCustomResizePercentage,
		Prompt:                 "beach",
		Alignment:              model.DefaultAlignment,
		OverlapLeft:            true,
		OverlapRight:           true,
		OverlapTop:             false,
		OverlapBottom:          true,
	}
}

// GRADIO - SUCCESS
func TestGradioService_Outpaint_OK(t *testing.T) {
	var deleted []string

	pred := &mockPredictor{
		predictFn: func(ctx context.Context, api string, params []any) (any, error) {
			require.Equal(t, model.DefaultGradioAPIName, api)
			require.Len(t, params, 13)

			file, ok := params[0].(gradio.FileData)
			require.True(t, ok)
			require.Equal(t, "https://example.com/cat.png", *file.URL)

			require.Equal(t, 720, params[1])
			require.Equal(t, 1280, params[2])
			require.Equal(t, 10, params[3])
			require.Equal(t, 8, params[4])
			require.Equal(t, "Full", params[5])
			require.Equal(t, 50, params[6])
			require.Equal(t, "beach", params[7])
			require.Equal(t, "Middle", params[8])
			require.Equal(t, []any{true, true, false, true}, params[9:])

			return []any{"/tmp/gradio/a/result.webp", "/tmp/gradio/b/input.webp"}, nil
		},
	}
	strg := &mockStorage{
		getFn: func(ctx context.Context, key string) (io.ReadCloser, string, error) {
			require.Equal(t, "/tmp/gradio/a/result.webp", key)
			return io.NopCloser(bytes.NewReader([]byte("image-bytes"))), model.WEBP, nil
		},
		deleteFn: func(ctx context.Context, key string) error {
			deleted = append(deleted, key)
			return nil
		},
	}

	svc := NewGradioService(pred, strg, "")
	env, err := svc.Outpaint(context.Background(), gradioRequest(model.URLRef{URL: "https://example.com/cat.png"}))
	require.NoError(t, err)
	require.Equal(t, base64.StdEncoding.EncodeToString([]byte("image-bytes")), env.Data["generated_image_b64"])
	require.Equal(t, true, env.Data["success"])
	require.ElementsMatch(t, []string{"/tmp/gradio/a/result.webp", "/tmp/gradio/b/input.webp"}, deleted)
}

// GRADIO - INLINE IMAGE DESCRIPTOR
func TestGradioService_Outpaint_InlineSource(t *testing.T) {
	size := int64(2048)
	mime := "image/jpeg"

	pred := &mockPredictor{
		predictFn: func(ctx context.Context, api string, params []any) (any, error) {
			file := params[0].(gradio.FileData)
			require.Nil(t, file.Path)
			require.Nil(t, file.OrigName)
			require.Equal(t, "https://cdn.example.com/x", *file.URL)
			require.Equal(t, size, *file.Size)
			require.Equal(t, mime, *file.MimeType)
			require.Equal(t, "gradio.FileData", file.Meta["_type"])
			return "/tmp/gradio/c/out.png", nil
		},
	}
	strg := &mockStorage{
		getFn: func(ctx context.Context, key string) (io.ReadCloser, string, error) {
			return io.NopCloser(bytes.NewReader([]byte("png"))), model.PNG, nil
		},
		deleteFn: func(ctx context.Context, key string) error { return nil },
	}

	svc := NewGradioService(pred, strg, "/inpaint")
	_, err := svc.Outpaint(context.Background(), gradioRequest(model.InlineDescriptor{
		URL: "https://cdn.example.com/x", Size: &size, MimeType: &mime,
	}))
	require.NoError(t, err)
}

// GRADIO - BACKEND AND RESULT FAILURES
func TestGradioService_Outpaint_Errors(t *testing.T) {
	tests := []struct {
		name      string
		predictFn func(ctx context.Context, api string, params []any) (any, error)
		getErr    error
	}{
		{
			name: "predict failed",
			predictFn: func(ctx context.Context, api string, params []any) (any, error) {
				return nil, gradio.ErrPredictionFailed
			},
		},
		{
			name: "empty result",
			predictFn: func(ctx context.Context, api string, params []any) (any, error) {
				return []any{}, nil
			},
		},
		{
			name: "result file missing",
			predictFn: func(ctx context.Context, api string, params []any) (any, error) {
				return []any{"/tmp/gradio/missing.png"}, nil
			},
			getErr: errors.New("no such file"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strg := &mockStorage{
				getFn: func(ctx context.Context, key string) (io.ReadCloser, string, error) {
					return nil, "", tt.getErr
				},
				deleteFn: func(ctx context.Context, key string) error { return nil },
			}
			svc := NewGradioService(&mockPredictor{predictFn: tt.predictFn}, strg, "")

			_, err := svc.Outpaint(context.Background(), gradioRequest(model.URLRef{URL: "https://example.com/a.png"}))
			require.ErrorIs(t, err, model.ErrBackend)
		})
	}
}

// CANVAS
func TestCanvasService(t *testing.T) {
	svc := NewCanvasService(imaging.PNG)
	req := &model.CanvasRequest{InputImageB64: redSquareB64(t, 2), LeftPixels: 1, BottomPixels: 2}

	env, err := svc.Pad(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, model.PNG, env.Data["mime_type"])
	raw, err := base64.StdEncoding.DecodeString(env.Data["image_b64"].(string))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 3, 4), decodePNG(t, raw).Bounds())

	env, err = svc.Mask(context.Background(), req)
	require.NoError(t, err)
	raw, err = base64.StdEncoding.DecodeString(env.Data["image_b64"].(string))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 3, 4), decodePNG(t, raw).Bounds())

	_, err = svc.Pad(context.Background(), &model.CanvasRequest{InputImageB64: ""})
	require.ErrorIs(t, err, model.ErrDecode)
}

func TestResultPaths(t *testing.T) {
	tests := []struct {
		name    string
		res     any
		want    []string
		wantErr bool
	}{
		{name: "single path", res: "/a/out.png", want: []string{"/a/out.png"}},
		{name: "flat list", res: []any{"/a/out.png", "/a/in.png"}, want: []string{"/a/out.png", "/a/in.png"}},
		{name: "nested pair", res: []any{[]any{"/a/1.png", "/a/2.png"}, "caption"}, want: []string{"/a/1.png", "/a/2.png"}},
		{name: "url in result[0]", res: []any{"https://host/out.png", "/a/out.png"}, wantErr: true},
		{name: "relative path in result[0]", res: []any{"out.png", "/a/out.png"}, wantErr: true},
		{name: "non-string in result[0]", res: []any{42.0, "/a/out.png"}, wantErr: true},
		{name: "empty list", res: []any{}, wantErr: true},
		{name: "empty nested list", res: []any{[]any{}, "/a/out.png"}, wantErr: true},
		{name: "nil", res: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths, err := resultPaths(tt.res)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrEmptyResult)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, paths)
		})
	}
}

// GRADIO - RESULT[0] IS NOT A LOCAL FILE
func TestGradioService_Outpaint_FirstResultNotAPath(t *testing.T) {
	pred := &mockPredictor{
		predictFn: func(ctx context.Context, api string, params []any) (any, error) {
			return []any{"https://host/out.png", "/tmp/gradio/a/out.png"}, nil
		},
	}
	strg := &mockStorage{
		getFn: func(ctx context.Context, key string) (io.ReadCloser, string, error) {
			t.Fatal("storage must not be read")
			return nil, "", nil
		},
	}

	svc := NewGradioService(pred, strg, "")
	_, err := svc.Outpaint(context.Background(), gradioRequest(model.URLRef{URL: "https://example.com/a.png"}))
	require.ErrorIs(t, err, model.ErrBackend)
	require.Contains(t, err.Error(), "result[0]")
}
