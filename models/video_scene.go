package models

import (
	"strings"
	"time"
)

type VideoScene struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	VideoID     uint      `gorm:"not null;index" json:"video_id"`
	SceneNumber int       `gorm:"not null" json:"scene_number"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Duration    float32   `json:"duration"`
	CreatedAt   time.Time `json:"created_at"`

	// Curation inputs emitted by scene generation.
	SearchKeywords string  `gorm:"type:text" json:"search_keywords"` // comma-separated
	Role           string  `gorm:"size:32" json:"role"`              // hook, tips, warning, conclusion...
	EmotionalTone  string  `gorm:"size:32" json:"emotional_tone"`
	VisualsNeeded  int     `gorm:"default:1" json:"visuals_needed"`
	PacingStrategy string  `gorm:"size:16;default:'steady'" json:"pacing_strategy"`
	AvgVisualSecs  float32 `json:"avg_visual_secs"`
}

func (VideoScene) TableName() string {
	return "video_scenes"
}

// KeywordList splits the stored comma-separated keywords.
func (s VideoScene) KeywordList() []string {
	var out []string
	for _, k := range strings.Split(s.SearchKeywords, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
