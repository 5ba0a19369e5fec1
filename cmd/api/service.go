package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/UnendingLoop/Outpainter/internal/backend/gradio"
	"github.com/UnendingLoop/Outpainter/internal/backend/vertex"
	"github.com/UnendingLoop/Outpainter/internal/model"
	"github.com/wb-go/wbf/config"
)

type OutpaintVertexService interface {
	Outpaint(ctx context.Context, req *model.VertexOutpaintRequest) (*model.Envelope, error)
}

type OutpaintGradioService interface {
	Outpaint(ctx context.Context, req *model.GradioOutpaintRequest) (*model.Envelope, error)
}

type ResultSweeper interface {
	Sweep(ctx context.Context, olderThan time.Duration) (int, error)
}

func newGradioClient(cfg *config.Config, store gradio.FileStore) *gradio.Client {
	log.Println("Preparing gradio client...")

	space := cfg.GetString("GRADIO_SPACE")
	if space == "" {
		space = model.DefaultGradioSpace
		log.Printf("GRADIO_SPACE is empty. Using default value %q...", space)
	}

	// 0 - без таймаута, запрос живёт сколько живёт контекст клиента
	var timeout time.Duration
	if raw := cfg.GetString("BACKEND_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("Incorrect BACKEND_TIMEOUT %q: %v\nExiting app...", raw, err)
		}
		timeout = d
	}

	client, err := gradio.NewClient(gradio.Options{
		Space:      space,
		Token:      cfg.GetString("GRADIO_HF_TOKEN"),
		APIPrefix:  cfg.GetString("GRADIO_API_PREFIX"),
		HTTPClient: &http.Client{Timeout: timeout},
	}, store)
	if err != nil {
		log.Fatalf("Failed to init gradio client: %v\nExiting app...", err)
	}
	log.Printf("Gradio client is ready: %s", gradio.SpaceURL(space))

	return client
}

func newVertexClient(ctx context.Context, cfg *config.Config) *vertex.Client {
	log.Println("Preparing Vertex AI client...")

	location := cfg.GetString("VERTEX_LOCATION")
	if location == "" {
		location = "us-central1"
	}

	client, err := vertex.NewClient(ctx, vertex.Options{
		Project:  cfg.GetString("VERTEX_PROJECT"),
		Location: location,
		APIKey:   cfg.GetString("VERTEX_API_KEY"),
	})
	if err != nil {
		log.Fatalf("Failed to init Vertex AI client: %v\nExiting app...", err)
	}
	log.Println("Vertex AI client is ready!")

	return client
}
