// Package vertex provides outpainting through Imagen models on Vertex AI
package vertex

import (
	"context"
	"errors"
	"fmt"

	"github.com/UnendingLoop/Outpainter/internal/model"
	"google.golang.org/genai"
)

const (
	rawReferenceID  int32 = 1
	maskReferenceID int32 = 2
	outputMIMEType        = "image/png"
)

var ErrNoImages = errors.New("vertex returned no images")

// imageEditor - то, что нам нужно от *genai.Models
type imageEditor interface {
	EditImage(ctx context.Context, model, prompt string, referenceImages []genai.ReferenceImage, config *genai.EditImageConfig) (*genai.EditImageResponse, error)
}

type Options struct {
	Project  string
	Location string
	APIKey   string
}

type Client struct {
	models imageEditor
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.APIKey == "" && opts.Project == "" {
		return nil, errors.New("vertex project or API key must be provided")
	}

	cfg := &genai.ClientConfig{
		Backend: genai.BackendVertexAI,
		APIKey:  opts.APIKey,
	}
	// project/location и API key взаимоисключающие в genai
	if opts.APIKey == "" {
		cfg.Project = opts.Project
		cfg.Location = opts.Location
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init genai client: %w", err)
	}
	return &Client{models: client.Models}, nil
}

// EditOutpaint отправляет расширенный холст и маску (белое - дорисовать, чёрное - сохранить)
func (c *Client) EditOutpaint(ctx context.Context, req *model.VertexEditRequest) (*model.GeneratedImage, error) {
	refMIME := req.ReferenceMIME
	if refMIME == "" {
		refMIME = model.PNG
	}

	raw := genai.NewRawReferenceImage(&genai.Image{
		ImageBytes: req.ReferenceImage,
		MIMEType:   refMIME,
	}, rawReferenceID)

	mask := genai.NewMaskReferenceImage(&genai.Image{
		ImageBytes: req.MaskImage,
		MIMEType:   model.PNG,
	}, maskReferenceID, &genai.MaskReferenceConfig{
		MaskMode:     genai.MaskReferenceModeMaskModeUserProvided,
		MaskDilation: genai.Ptr(float32(req.MaskDilation)),
	})

	resp, err := c.models.EditImage(ctx, req.ModelName, req.Prompt,
		[]genai.ReferenceImage{raw, mask},
		&genai.EditImageConfig{
			EditMode:       genai.EditModeOutpaint,
			NumberOfImages: 1,
			OutputMIMEType: outputMIMEType,
		})
	if err != nil {
		return nil, err
	}

	for _, gen := range resp.GeneratedImages {
		if gen == nil || gen.Image == nil || len(gen.Image.ImageBytes) == 0 {
			continue
		}
		mime := gen.Image.MIMEType
		if mime == "" {
			mime = outputMIMEType
		}
		return &model.GeneratedImage{Data: gen.Image.ImageBytes, MIMEType: mime}, nil
	}

	// все картинки отфильтрованы - отдаём причину, если она есть
	for _, gen := range resp.GeneratedImages {
		if gen != nil && gen.RAIFilteredReason != "" {
			return nil, fmt.Errorf("%w: %s", ErrNoImages, gen.RAIFilteredReason)
		}
	}
	return nil, ErrNoImages
}
