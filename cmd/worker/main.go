package main

import (
	"context"
	"log"
	"os"

	"github.com/hitechparadigm/youtube-video-upload/internal/platform"
	"github.com/hitechparadigm/youtube-video-upload/internal/storage"
	"github.com/hitechparadigm/youtube-video-upload/tasks"
	"github.com/hitechparadigm/youtube-video-upload/worker"
)

func main() {
	// Use the shared initializers
	db := platform.NewDBConnection()
	rdb := platform.NewRedisClient()
	ctx := context.Background()

	providers := platform.NewMediaProviders()

	blobRoot := os.Getenv("MEDIA_STORAGE_ROOT")
	if blobRoot == "" {
		blobRoot = "./media"
	}
	blobs := storage.NewLocalBlobStore(blobRoot)

	processor := worker.NewProcessor(db, rdb, providers, blobs)

	processor.Register(tasks.QueueVideoTitle, processor.HandleTitleGeneration)
	processor.Register(tasks.QueueSceneGeneration, processor.HandleSceneGeneration)
	processor.Register(tasks.QueueVideoScript, processor.HandleScriptGeneration)
	processor.Register(tasks.QueueMediaCuration, processor.HandleMediaCuration)
	processor.Register(tasks.QueueVideoRender, processor.HandleRenderVideo)

	log.Println("Worker started, waiting for queue tasks...")
	processor.Listen(ctx,
		tasks.QueueVideoTitle,
		tasks.QueueSceneGeneration,
		tasks.QueueVideoScript,
		tasks.QueueMediaCuration,
		tasks.QueueVideoRender,
	)
}
