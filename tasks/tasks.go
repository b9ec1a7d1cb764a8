package tasks

import "encoding/json"

// ---
// QUEUE DEFINITIONS
// ---
// We define all queue names as constants here.
const (
	// QueueVideoTitle is the first step: Generate a title.
	QueueVideoTitle = "q_video_title"

	// QueueSceneGeneration is the second step: Generate scenes with
	// search keywords and pacing.
	QueueSceneGeneration = "q_scene_generation"

	// QueueVideoScript is the third step: Generate the narration script.
	QueueVideoScript = "q_video_script"

	// QueueMediaCuration is the fourth step: Search, score, validate and
	// store media for every scene.
	QueueMediaCuration = "q_media_curation"

	// QueueVideoRender is the final step: Render the video.
	QueueVideoRender = "q_video_render"
)

// ---
// TASK PAYLOADS
// ---
// These are the structs that will be JSON-marshalled and sent to Redis.

// TitleTaskPayload is the payload for QueueVideoTitle
type TitleTaskPayload struct {
	VideoID uint `json:"video_id"`
}

// SceneTaskPayload is the payload for QueueSceneGeneration
type SceneTaskPayload struct {
	VideoID uint `json:"video_id"`
}

// ScriptTaskPayload is the payload for QueueVideoScript
type ScriptTaskPayload struct {
	VideoID uint `json:"video_id"`
}

// CurationTaskPayload is the payload for QueueMediaCuration
type CurationTaskPayload struct {
	VideoID uint `json:"video_id"`
}

// RenderTaskPayload is the payload for QueueVideoRender
type RenderTaskPayload struct {
	VideoID uint `json:"video_id"`
}

// ---
// HELPER FUNCTIONS
// ---

// Marshal creates a JSON payload for a task.
func Marshal(payload interface{}) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
