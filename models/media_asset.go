package models

import "time"

// MediaAssetRecord is the metadata row for one stored media file. The
// bytes themselves live in the blob store under StoragePath; the content
// hash and source URLs are kept so later runs in the same series can
// avoid re-acquiring the same content.
type MediaAssetRecord struct {
	ID          uint `gorm:"primaryKey" json:"id"`
	VideoID     uint `gorm:"not null;index" json:"video_id"`
	SceneNumber int  `gorm:"not null" json:"scene_number"`
	Position    int  `gorm:"not null" json:"position"`

	Provider    string `gorm:"size:32" json:"provider"`
	Kind        string `gorm:"size:16" json:"kind"`
	StoragePath string `gorm:"size:512;not null" json:"storage_path"`
	ContentHash string `gorm:"size:64;index" json:"content_hash"`
	SourceURL   string `gorm:"size:1024" json:"source_url"`
	PageURL     string `gorm:"size:1024" json:"page_url"`
	Attribution string `gorm:"size:255" json:"attribution"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`

	Synthetic        bool   `gorm:"default:false" json:"synthetic"`
	FallbackStrategy string `gorm:"size:32" json:"fallback_strategy,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (MediaAssetRecord) TableName() string {
	return "media_assets"
}
