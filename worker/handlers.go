package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/hitechparadigm/youtube-video-upload/curation"
	"github.com/hitechparadigm/youtube-video-upload/internal/storage"
	"github.com/hitechparadigm/youtube-video-upload/models"
	"github.com/hitechparadigm/youtube-video-upload/processing"
	"github.com/hitechparadigm/youtube-video-upload/tasks"
	"gorm.io/gorm"
)

// HandleTitleGeneration processes tasks from the QueueVideoTitle.
func (p *Processor) HandleTitleGeneration(ctx context.Context, payload string) error {
	var task tasks.TitleTaskPayload
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return err
	}

	log.Printf("Processing title for video %d", task.VideoID)
	var video models.Video
	if err := p.DB.First(&video, task.VideoID).Error; err != nil {
		return err
	}

	var series models.Series
	if err := p.DB.First(&series, video.SeriesID).Error; err != nil {
		return err
	}

	p.DB.Model(&video).Update("status", "processing_title")

	// Get existing titles so the new one is unique within the series.
	var existingVideos []models.Video
	p.DB.Where("series_id = ? AND id != ?", video.SeriesID, video.ID).Find(&existingVideos)
	var existingTitles []string
	for _, v := range existingVideos {
		if v.Title != "" {
			existingTitles = append(existingTitles, v.Title)
		}
	}

	title, err := processing.GenerateTitle(ctx, series, existingTitles)
	if err != nil {
		p.DB.Model(&video).Update("status", "failed_title")
		return err
	}

	if err := p.DB.Model(&video).Update("title", title).Error; err != nil {
		return err
	}
	log.Printf("Generated title for video %d: %s", video.ID, title)

	nextTask := tasks.SceneTaskPayload{VideoID: video.ID}
	if err := p.Enqueue(ctx, tasks.QueueSceneGeneration, nextTask); err != nil {
		p.DB.Model(&video).Update("status", "failed_queue_scenes")
		return err
	}

	log.Printf("Queued video %d for scene generation", video.ID)
	p.DB.Model(&video).Update("status", "pending_scenes")
	return nil
}

// HandleSceneGeneration processes tasks from the QueueSceneGeneration.
func (p *Processor) HandleSceneGeneration(ctx context.Context, payload string) error {
	var task tasks.SceneTaskPayload
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return err
	}

	log.Printf("Processing scenes for video %d", task.VideoID)
	var video models.Video
	if err := p.DB.First(&video, task.VideoID).Error; err != nil {
		return err
	}

	if video.Title == "" {
		p.DB.Model(&video).Update("status", "failed_scenes_no_title")
		return nil // Should not happen in normal flow, but prevent crash
	}

	var series models.Series
	if err := p.DB.First(&series, video.SeriesID).Error; err != nil {
		return err
	}

	p.DB.Model(&video).Update("status", "processing_scenes")

	scenes, err := processing.GenerateScenes(ctx, series, video.Title)
	if err != nil {
		p.DB.Model(&video).Update("status", "failed_scenes")
		return err
	}

	// Save scenes to database in a single transaction
	err = p.DB.Transaction(func(tx *gorm.DB) error {
		for _, scene := range scenes {
			scene.VideoID = video.ID
			if err := tx.Create(&scene).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		p.DB.Model(&video).Update("status", "failed_save_scenes")
		return err
	}

	log.Printf("Generated %d scenes for video %d", len(scenes), video.ID)

	nextTask := tasks.ScriptTaskPayload{VideoID: video.ID}
	if err := p.Enqueue(ctx, tasks.QueueVideoScript, nextTask); err != nil {
		p.DB.Model(&video).Update("status", "failed_queue_script")
		return err
	}

	log.Printf("Queued video %d for script generation", video.ID)
	p.DB.Model(&video).Update("status", "pending_script")
	return nil
}

// HandleScriptGeneration processes tasks from the QueueVideoScript.
func (p *Processor) HandleScriptGeneration(ctx context.Context, payload string) error {
	var task tasks.ScriptTaskPayload
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return err
	}

	log.Printf("Processing script for video %d", task.VideoID)
	var video models.Video
	if err := p.DB.Preload("Scenes").First(&video, task.VideoID).Error; err != nil {
		return err
	}

	var series models.Series
	if err := p.DB.First(&series, video.SeriesID).Error; err != nil {
		return err
	}

	p.DB.Model(&video).Update("status", "processing_script")

	script, err := processing.GenerateScript(ctx, video, series)
	if err != nil {
		p.DB.Model(&video).Update("status", "failed_script")
		return err
	}

	if err := p.DB.Model(&video).Update("script", script).Error; err != nil {
		return err
	}
	log.Printf("Generated script for video %d (%d chars)", video.ID, len(script))

	nextTask := tasks.CurationTaskPayload{VideoID: video.ID}
	if err := p.Enqueue(ctx, tasks.QueueMediaCuration, nextTask); err != nil {
		p.DB.Model(&video).Update("status", "failed_queue_media")
		return err
	}

	log.Printf("Queued video %d for media curation", video.ID)
	p.DB.Model(&video).Update("status", "pending_media")
	return nil
}

// HandleMediaCuration processes tasks from the QueueMediaCuration: it
// turns the stored scenes into media requests, runs the curation engine,
// stores every accepted asset in the blob store and persists per-scene
// diagnostics.
func (p *Processor) HandleMediaCuration(ctx context.Context, payload string) error {
	var task tasks.CurationTaskPayload
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return err
	}

	log.Printf("Processing media for video %d", task.VideoID)
	var video models.Video
	if err := p.DB.Preload("Scenes").First(&video, task.VideoID).Error; err != nil {
		return err
	}

	if len(video.Scenes) == 0 {
		p.DB.Model(&video).Update("status", "failed_media_no_scenes")
		return nil
	}
	if len(p.Providers) == 0 {
		p.DB.Model(&video).Update("status", "failed_media_no_providers")
		return fmt.Errorf("no media providers configured")
	}

	p.DB.Model(&video).Update("status", "processing_media")

	sort.Slice(video.Scenes, func(i, j int) bool {
		return video.Scenes[i].SceneNumber < video.Scenes[j].SceneNumber
	})
	reqs := buildSceneRequests(video)

	dedup := curation.NewDedupState()
	dedup.SeedURLs(p.priorAssetURLs(video.SeriesID))

	names := make([]curation.Provider, 0, len(p.Providers))
	for _, prov := range p.Providers {
		names = append(names, prov.Name())
	}
	curator := curation.NewCurator(
		p.Providers,
		curation.NewSceneScheduler(names),
		curation.NewAcquisitionValidator(),
		curation.NewFallbackGenerator(),
		dedup,
		curation.DefaultCuratorConfig(),
	)

	perScene, err := curator.CurateProject(ctx, reqs)
	if err != nil {
		p.DB.Model(&video).Update("status", "failed_media")
		return err
	}

	if err := p.persistAssets(ctx, video, reqs, perScene); err != nil {
		p.DB.Model(&video).Update("status", "failed_save_media")
		return err
	}
	p.persistRecords(video.ID, curator.Records())

	nextTask := tasks.RenderTaskPayload{VideoID: video.ID}
	if err := p.Enqueue(ctx, tasks.QueueVideoRender, nextTask); err != nil {
		p.DB.Model(&video).Update("status", "failed_queue_render")
		return err
	}

	log.Printf("Queued video %d for rendering", video.ID)
	p.DB.Model(&video).Update("status", "pending_render")
	return nil
}

// HandleRenderVideo processes tasks from the QueueVideoRender.
func (p *Processor) HandleRenderVideo(ctx context.Context, payload string) error {
	var task tasks.RenderTaskPayload
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return err
	}

	var video models.Video
	if err := p.DB.First(&video, task.VideoID).Error; err != nil {
		return err
	}

	log.Printf("Rendering video %d (%s)...", task.VideoID, video.Title)
	p.DB.Model(&video).Update("status", "rendering")

	// TODO: assemble the stored scene assets into the final video.

	p.DB.Model(&video).Update("status", "complete")
	log.Printf("Completed video %d", task.VideoID)

	return nil
}

// buildSceneRequests maps stored scenes to curation inputs.
func buildSceneRequests(video models.Video) []curation.SceneMediaRequest {
	reqs := make([]curation.SceneMediaRequest, 0, len(video.Scenes))
	for _, scene := range video.Scenes {
		visuals := scene.VisualsNeeded
		if visuals <= 0 {
			visuals = 1
		}
		avg := float64(scene.AvgVisualSecs)
		if avg == 0 && visuals > 0 {
			avg = float64(scene.Duration) / float64(visuals)
		}
		reqs = append(reqs, curation.SceneMediaRequest{
			SceneNumber:    scene.SceneNumber,
			SearchKeywords: scene.KeywordList(),
			Pacing: curation.ScenePacing{
				VisualsNeeded:        visuals,
				AverageVisualSeconds: avg,
				Strategy:             scene.PacingStrategy,
			},
			Context: curation.SceneContext{
				Purpose:         scene.Role,
				EmotionalTone:   scene.EmotionalTone,
				Title:           video.Title,
				DurationSeconds: float64(scene.Duration),
			},
		})
	}
	return reqs
}

// priorAssetURLs collects the source URLs of every asset already stored
// for the series, so a new video doesn't repeat earlier content.
func (p *Processor) priorAssetURLs(seriesID uint) []string {
	var records []models.MediaAssetRecord
	p.DB.
		Joins("JOIN seriesvideos ON seriesvideos.id = media_assets.video_id").
		Where("seriesvideos.series_id = ?", seriesID).
		Find(&records)

	var urls []string
	for _, r := range records {
		if r.SourceURL != "" {
			urls = append(urls, r.SourceURL)
		}
		if r.PageURL != "" {
			urls = append(urls, r.PageURL)
		}
	}
	return urls
}

// persistAssets writes every asset's bytes to the blob store and its
// metadata row to the database.
func (p *Processor) persistAssets(ctx context.Context, video models.Video, reqs []curation.SceneMediaRequest, perScene [][]curation.MediaAsset) error {
	for i, assets := range perScene {
		sceneNumber := reqs[i].SceneNumber
		for j, asset := range assets {
			key := storage.AssetKey(video.ID, sceneNumber, string(asset.Kind), j, asset.Bytes)
			path, err := p.Blobs.Put(ctx, key, asset.Bytes)
			if err != nil {
				return fmt.Errorf("store asset for scene %d: %w", sceneNumber, err)
			}

			record := models.MediaAssetRecord{
				VideoID:          video.ID,
				SceneNumber:      sceneNumber,
				Position:         j,
				Provider:         string(asset.Provider),
				Kind:             string(asset.Kind),
				StoragePath:      path,
				ContentHash:      asset.ContentHash,
				Attribution:      asset.Attribution,
				Synthetic:        asset.Synthetic,
				FallbackStrategy: asset.FallbackStrategy,
			}
			if asset.Source != nil {
				record.SourceURL = asset.Source.DownloadURL
				record.PageURL = asset.Source.PageURL
				record.Width = asset.Source.Width
				record.Height = asset.Source.Height
			}
			if err := p.DB.Create(&record).Error; err != nil {
				return fmt.Errorf("save asset record for scene %d: %w", sceneNumber, err)
			}
		}
	}
	return nil
}

// persistRecords saves the curation diagnostics for the API to surface.
func (p *Processor) persistRecords(videoID uint, records []curation.SceneRecord) {
	for _, rec := range records {
		row := models.CurationRecord{
			VideoID:         videoID,
			SceneNumber:     rec.SceneNumber,
			QueryUsed:       rec.QueryUsed,
			ProviderOrder:   joinProviders(rec.ProviderOrder),
			FinalState:      string(rec.FinalState),
			Success:         rec.Success,
			ResultCount:     rec.ResultCount,
			SyntheticCount:  rec.SyntheticCount,
			FailedProviders: joinProviders(rec.FailedProviders),
			DurationMs:      rec.DurationMs,
			Error:           rec.Error,
		}
		if err := p.DB.Create(&row).Error; err != nil {
			log.Printf("Error saving curation record for scene %d: %v", rec.SceneNumber, err)
		}
	}
}

func joinProviders(providers []curation.Provider) string {
	parts := make([]string, 0, len(providers))
	for _, p := range providers {
		parts = append(parts, string(p))
	}
	return strings.Join(parts, ",")
}
