package service

import (
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"github.com/UnendingLoop/Outpainter/internal/backend/gradio"
	"github.com/UnendingLoop/Outpainter/internal/model"
)

var ErrEmptyResult = errors.New("gradio returned no result files")

// toFileData собирает описание входной картинки для gradio из нормализованного источника
func toFileData(src model.ImageSource) (gradio.FileData, error) {
	switch s := src.(type) {
	case model.URLRef:
		return gradio.FileFromURL(s.URL), nil
	case model.InlineDescriptor:
		u := s.URL
		return gradio.FileData{
			URL:      &u,
			Size:     s.Size,
			MimeType: s.MimeType,
			Meta:     map[string]string{"_type": "gradio.FileData"},
		}, nil
	default:
		return gradio.FileData{}, model.ErrNoImageSource
	}
}

// resultPaths берёт основной результат из result[0]; если это вложенный список (ImageSlider), то из его элементов.
// Первым в ответе идёт путь основного результата, остальные пути нужны только для очистки.
func resultPaths(res any) ([]string, error) {
	first := res
	if list, ok := res.([]any); ok {
		if len(list) == 0 {
			return nil, fmt.Errorf("%w: %v", ErrEmptyResult, res)
		}
		first = list[0]
	}

	var candidates []string
	switch val := first.(type) {
	case string:
		candidates = []string{val}
	case []any:
		for _, item := range val {
			p, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: unexpected element %v in result[0]", ErrEmptyResult, item)
			}
			candidates = append(candidates, p)
		}
	}

	if len(candidates) == 0 || !filepath.IsAbs(candidates[0]) {
		return nil, fmt.Errorf("%w: result[0] is not a local file path: %v", ErrEmptyResult, first)
	}

	// остальные абсолютные пути - тоже скачанные файлы, их удаляем вместе с основным
	paths := []string{candidates[0]}
	for _, p := range candidates[1:] {
		collectPaths(p, &paths)
	}
	if list, ok := res.([]any); ok {
		for _, item := range list[1:] {
			collectPaths(item, &paths)
		}
	}
	return paths, nil
}

func collectPaths(v any, out *[]string) {
	switch val := v.(type) {
	case string:
		if filepath.IsAbs(val) {
			*out = append(*out, val)
		}
	case []any:
		for _, item := range val {
			collectPaths(item, out)
		}
	}
}

func closeFileFlow(res io.ReadCloser) {
	if res == nil {
		return
	}
	if err := res.Close(); err != nil {
		log.Println("Service failed to close fileflow:", err)
	}
}
