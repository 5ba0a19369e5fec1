// Package main (in api-subfolder) provides launch of the outpainting HTTP facade
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnendingLoop/Outpainter/internal/model"
	"github.com/UnendingLoop/Outpainter/internal/mwlogger"
	"github.com/UnendingLoop/Outpainter/internal/service"
	"github.com/UnendingLoop/Outpainter/internal/storage"
	"github.com/UnendingLoop/Outpainter/internal/transport"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	// инициализировать конфиг/ считать энвы
	appConfig := config.New()
	appConfig.EnableEnv("")
	if err := appConfig.LoadEnvFiles("./.env"); err != nil {
		log.Printf("Failed to load .env file: %s\nUsing process environment only...", err)
	}

	// стартуем логгер
	zlog.InitConsole()
	if err := zlog.SetLevel(logLevel(appConfig)); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	// готовим заранее слушатель прерываний - контекст для всего приложения
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// локальная папка для скачанных результатов gradio
	strg := storage.NewImgStorage(appConfig)

	// клиенты бэкендов создаются один раз на весь процесс
	gradioClient := newGradioClient(appConfig, strg)
	vertexClient := newVertexClient(ctx, appConfig)

	opaqueFormat := model.FormatFromString(appConfig.GetString("PAD_OPAQUE_FORMAT"))

	// создаем экземпляры сервисов
	var vertexSvc OutpaintVertexService = service.NewVertexService(vertexClient, appConfig.GetString("VERTEX_MODEL"), opaqueFormat)
	var gradioSvc OutpaintGradioService = service.NewGradioService(gradioClient, strg, appConfig.GetString("GRADIO_API_NAME"))
	canvasSvc := service.NewCanvasService(opaqueFormat)

	// cоздаем экземпляр хендлера HTTP
	handlers := transport.NewOutpaintHandler(vertexSvc, gradioSvc, canvasSvc)
	// сетапим сервер
	mode := appConfig.GetString("GIN_MODE")
	engine := ginext.New(mode)

	engine.GET("/ping", handlers.SimplePinger)
	engine.POST("/api/v1/vertex/outpaint", handlers.VertexOutpaint) // облачный бэкенд
	engine.POST("/api/v1/gradio/outpaint", handlers.GradioOutpaint) // inference-graph бэкенд
	engine.POST("/api/v1/canvas/pad", handlers.CanvasPad)           // только расширенный холст
	engine.POST("/api/v1/canvas/mask", handlers.CanvasMask)         // только маска

	port := appConfig.GetString("APP_PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mwlogger.NewMWLogger(engine),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Server launch
	go func() {
		log.Printf("Server running on http://localhost%s\n", srv.Addr)
		err := srv.ListenAndServe()
		if err != nil {
			switch {
			case errors.Is(err, http.ErrServerClosed):
				log.Println("Server gracefully stopping...")
			default:
				log.Printf("Server stopped: %v", err)
				stop()
			}
		}
	}()

	// фоновая чистка результатов, которые не удалились после запроса
	go sweepLoop(ctx, strg)

	// ждем отмены контекста для грейсфул остановки сервера
	<-ctx.Done()

	shutdown(srv)
	log.Println("Exiting app...")
}

func sweepLoop(ctx context.Context, strg ResultSweeper) {
	defer func() {
		if r := recover(); r != nil {
			log.Println("Sweep loop crashed:", r)
		}
	}()

	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := strg.Sweep(ctx, time.Hour)
			if err != nil && ctx.Err() == nil {
				zlog.Logger.Warn().Err(err).Msg("Failed to sweep stale gradio results")
				continue
			}
			if n > 0 {
				zlog.Logger.Info().Int("removed", n).Msg("Stale gradio results removed")
			}
		}
	}
}

func shutdown(srv *http.Server) {
	log.Println("Interrupt received!!! Starting shutdown sequence...")

	// даём текущим запросам к бэкендам время доработать
	shCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shCtx); err != nil {
		log.Println("Failed to shutdown HTTP-server correctly:", err)
		return
	}
	log.Println("HTTP-server stopped")
}

func logLevel(cfg *config.Config) string {
	if cfg.GetString("DEBUG") == "true" {
		return "debug"
	}
	if lvl := cfg.GetString("LOG_LEVEL"); lvl != "" {
		return lvl
	}
	return "info"
}
