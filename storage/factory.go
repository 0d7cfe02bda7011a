package storage

import (
	"fmt"
	"log"

	"github.com/vioaki/prompt-manager/config"
	dbconfig "github.com/vioaki/prompt-manager/config/db"
	"github.com/vioaki/prompt-manager/internal/services/imaging"
)

// NewBackend 按配置选定存储后端，进程生命周期内只选一次
func NewBackend(cfg *config.Config, settings *dbconfig.Manager, transcoder *imaging.Transcoder) (Backend, error) {
	log.Printf("Initializing storage, type: %s", cfg.StorageType)

	switch cfg.StorageType {
	case "local":
		backend, err := NewLocalBackend(cfg.UploadFolder, transcoder, settings)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local storage: %w", err)
		}
		log.Println("Successfully initialized 'local' storage backend")
		return backend, nil
	case "s3":
		backend, err := NewS3Backend(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize s3 storage: %w", err)
		}
		log.Println("Successfully initialized 's3' storage backend")
		return backend, nil
	default:
		return nil, fmt.Errorf("invalid storage type specified in config: %s", cfg.StorageType)
	}
}
