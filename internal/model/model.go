// Package model provides data-structs for internal app-usage
package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/disintegration/imaging"
)

// Margins - количество пикселей, добавляемых к каждой стороне холста
type Margins struct {
	Left   int
	Right  int
	Top    int
	Bottom int
}

func (m Margins) Validate() error {
	if m.Left < 0 || m.Right < 0 || m.Top < 0 || m.Bottom < 0 {
		return ErrNegativeMargins
	}
	return nil
}

//---------------------

// Envelope - единый формат ответа API
type Envelope struct {
	Message   *string        `json:"message"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

func NewEnvelope(msg string, data map[string]any) *Envelope {
	var m *string
	if msg != "" {
		m = &msg
	}
	return &Envelope{
		Message:   m,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Data:      data,
	}
}

//---------------------

// CanvasRequest - тело запросов /canvas/pad и /canvas/mask
type CanvasRequest struct {
	InputImageB64 string `json:"input_image_b64" binding:"required"`
	LeftPixels    int    `json:"left_pixels" binding:"min=0"`
	RightPixels   int    `json:"right_pixels" binding:"min=0"`
	TopPixels     int    `json:"top_pixels" binding:"min=0"`
	BottomPixels  int    `json:"bottom_pixels" binding:"min=0"`
}

func (r CanvasRequest) Margins() Margins {
	return Margins{Left: r.LeftPixels, Right: r.RightPixels, Top: r.TopPixels, Bottom: r.BottomPixels}
}

// VertexOutpaintRequest - тело запроса /vertex/outpaint
type VertexOutpaintRequest struct {
	InputImageB64 string   `json:"input_image_b64" binding:"required"`
	Prompt        string   `json:"prompt"`
	MaskDilation  *float64 `json:"mask_dilation" binding:"omitempty,min=0,max=1"`
	LeftPixels    int      `json:"left_pixels" binding:"min=0"`
	RightPixels   int      `json:"right_pixels" binding:"min=0"`
	TopPixels     int      `json:"top_pixels" binding:"min=0"`
	BottomPixels  int      `json:"bottom_pixels" binding:"min=0"`
}

func (r VertexOutpaintRequest) Margins() Margins {
	return Margins{Left: r.LeftPixels, Right: r.RightPixels, Top: r.TopPixels, Bottom: r.BottomPixels}
}

func (r VertexOutpaintRequest) Dilation() float64 {
	return valueOr(r.MaskDilation, DefaultMaskDilation)
}

// VertexEditRequest - то, что уходит в облачный бэкенд
type VertexEditRequest struct {
	ReferenceImage []byte
	ReferenceMIME  string
	MaskImage      []byte
	Prompt         string
	ModelName      string
	MaskDilation   float64
}

type GeneratedImage struct {
	Data     []byte
	MIMEType string
}

//---------------------

// InlineImage - описание картинки внутри запроса /gradio/outpaint
type InlineImage struct {
	URL      string  `json:"url" binding:"required"`
	Size     *int64  `json:"size"`
	MimeType *string `json:"mime_type"`
	OrigName *string `json:"orig_name"`
	IsStream bool    `json:"is_stream"`
}

// GradioOutpaintPayload - сырое тело запроса /gradio/outpaint, до нормализации
type GradioOutpaintPayload struct {
	URL                    *string      `json:"url"`
	HasURL                 *bool        `json:"has_url"`
	Image                  *InlineImage `json:"image"`
	Width                  int          `json:"width" binding:"required,min=1"`
	Height                 int          `json:"height" binding:"required,min=1"`
	OverlapPercentage      int          `json:"overlap_percentage" binding:"min=0,max=100"`
	NumInferenceSteps      int          `json:"num_inference_steps" binding:"required,min=1"`
	ResizeOption           *string      `json:"resize_option"`
	CustomResizePercentage *int         `json:"custom_resize_percentage" binding:"omitempty,min=1,max=100"`
	Prompt                 string       `json:"prompt"`
	Alignment              *string      `json:"alignment"`
	OverlapLeft            *bool        `json:"overlap_left"`
	OverlapRight           *bool        `json:"overlap_right"`
	OverlapTop             *bool        `json:"overlap_top"`
	OverlapBottom          *bool        `json:"overlap_bottom"`
}

// ImageSource - либо ссылка на картинку, либо inline-описание; других вариантов нет
type ImageSource interface {
	isImageSource()
}

type URLRef struct {
	URL string
}

type InlineDescriptor struct {
	URL      string
	Size     *int64
	MimeType *string
}

func (URLRef) isImageSource()           {}
func (InlineDescriptor) isImageSource() {}

// GradioOutpaintRequest - нормализованный запрос с заполненными дефолтами
type GradioOutpaintRequest struct {
	Source                 ImageSource
	Width                  int
	Height                 int
	OverlapPercentage      int
	NumInferenceSteps      int
	ResizeOption           string
	CustomResizePercentage int
	Prompt                 string
	Alignment              string
	OverlapLeft            bool
	OverlapRight           bool
	OverlapTop             bool
	OverlapBottom          bool
}

const (
	DefaultMaskDilation           = 0.03
	DefaultResizeOption           = "Full"
	DefaultAlignment              = "Middle"
	DefaultCustomResizePercentage = 50
	DefaultInlineMimeType         = "image/png"
	DefaultVertexModel            = "imagen-3.0-capability-001"
	DefaultGradioSpace            = "jallenjia/flux-fill-outpaint"
	DefaultGradioAPIName          = "/inpaint"
)

var ResizeOptions = map[string]bool{
	"Full":   true,
	"75%":    true,
	"50%":    true,
	"33%":    true,
	"25%":    true,
	"Custom": true,
}

var Alignments = map[string]bool{
	"Middle": true,
	"Left":   true,
	"Right":  true,
	"Top":    true,
	"Bottom": true,
}

// ------------------

var (
	ErrDecode      error = errors.New("invalid base64 image data")             // 500
	ErrImageFormat error = errors.New("unreadable image format")               // 500
	ErrValidation  error = errors.New("invalid request payload")               // 400
	ErrBackend     error = errors.New("outpaint backend call failed")          // 500
	ErrCommon500   error = errors.New("something went wrong. Try again later") // 500
)

var (
	ErrNegativeMargins error = fmt.Errorf("%w: padding values must be non-negative integers", ErrValidation)
	ErrNoImageSource   error = fmt.Errorf("%w: either url (has_url=true) or image (has_url=false) must be provided", ErrValidation)
)

//--------------------

const (
	JPEG = "image/jpeg"
	PNG  = "image/png"
	GIF  = "image/gif"
	WEBP = "image/webp"
)

var GetCType = map[imaging.Format]string{
	imaging.JPEG: JPEG,
	imaging.GIF:  GIF,
	imaging.PNG:  PNG,
}

// FormatFromString - формат вывода непрозрачных картинок из конфига
func FormatFromString(s string) imaging.Format {
	f, err := imaging.FormatFromExtension(s)
	if err != nil || (f != imaging.JPEG && f != imaging.PNG) {
		return imaging.PNG
	}
	return f
}

//--------------------

// Normalize проверяет источник картинки, проставляет дефолты и собирает нормализованный запрос.
// Дальше по коду ходит только один из вариантов ImageSource.
func (p *GradioOutpaintPayload) Normalize() (*GradioOutpaintRequest, error) {
	req := &GradioOutpaintRequest{
		Width:                  p.Width,
		Height:                 p.Height,
		OverlapPercentage:      p.OverlapPercentage,
		NumInferenceSteps:      p.NumInferenceSteps,
		ResizeOption:           valueOr(p.ResizeOption, DefaultResizeOption),
		CustomResizePercentage: valueOr(p.CustomResizePercentage, DefaultCustomResizePercentage),
		Prompt:                 p.Prompt,
		Alignment:              valueOr(p.Alignment, DefaultAlignment),
		OverlapLeft:            valueOr(p.OverlapLeft, true),
		OverlapRight:           valueOr(p.OverlapRight, true),
		OverlapTop:             valueOr(p.OverlapTop, true),
		OverlapBottom:          valueOr(p.OverlapBottom, true),
	}

	// источник: has_url решает, какой вариант брать
	switch {
	case valueOr(p.HasURL, true):
		if p.URL == nil || *p.URL == "" {
			return nil, ErrNoImageSource
		}
		req.Source = URLRef{URL: *p.URL}
	case p.Image != nil:
		mime := p.Image.MimeType
		if mime == nil || *mime == "" {
			def := DefaultInlineMimeType
			mime = &def
		}
		req.Source = InlineDescriptor{URL: p.Image.URL, Size: p.Image.Size, MimeType: mime}
	default:
		return nil, ErrNoImageSource
	}

	if !ResizeOptions[req.ResizeOption] {
		return nil, fmt.Errorf("%w: unsupported resize_option %q", ErrValidation, req.ResizeOption)
	}
	if !Alignments[req.Alignment] {
		return nil, fmt.Errorf("%w: unsupported alignment %q", ErrValidation, req.Alignment)
	}

	return req, nil
}

func valueOr[T any](v *T, def T) T {
	if v == nil {
		return def
	}
	return *v
}
