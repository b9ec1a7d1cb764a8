package models

import "time"

// CurationRecord persists the per-scene diagnostics from a media
// curation run so the API can report how each scene was served.
type CurationRecord struct {
	ID          uint `gorm:"primaryKey" json:"id"`
	VideoID     uint `gorm:"not null;index" json:"video_id"`
	SceneNumber int  `gorm:"not null" json:"scene_number"`

	QueryUsed     string `gorm:"size:512" json:"query_used"`
	ProviderOrder string `gorm:"size:128" json:"provider_order"` // comma-separated

	FinalState      string `gorm:"size:32" json:"final_state"`
	Success         bool   `json:"success"`
	ResultCount     int    `json:"result_count"`
	SyntheticCount  int    `json:"synthetic_count"`
	FailedProviders string `gorm:"size:128" json:"failed_providers"` // comma-separated
	DurationMs      int64  `json:"duration_ms"`
	Error           string `gorm:"type:text" json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (CurationRecord) TableName() string {
	return "curation_records"
}
