package storage

import (
	"log"

	"github.com/UnendingLoop/Outpainter/internal/storage/localstorage"
	"github.com/wb-go/wbf/config"
)

func NewImgStorage(cfg *config.Config) *localstorage.LocalImageStorage {
	log.Println("Preparing IMG-storage...")
	client, err := localstorage.NewLocalStorage(cfg.GetString("GRADIO_DOWNLOAD_DIR"))
	if err != nil {
		log.Fatalf("Failed to init IMG-storage: %v\nExiting app...", err)
	}
	log.Println("IMG-storage is ready!")

	return client
}
