package processing

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hitechparadigm/youtube-video-upload/models"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ScriptResponse is the structured output for the narration call.
type ScriptResponse struct {
	Script string `json:"script" jsonschema_description:"The full voiceover script, one short paragraph per scene in order."`
}

var scriptResponseSchema = GenerateSchema[ScriptResponse]()

// GenerateScript writes the voiceover narration aligned with the
// video's scene plan.
func GenerateScript(ctx context.Context, video models.Video, series models.Series) (string, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	var sceneLines []string
	for _, scene := range video.Scenes {
		sceneLines = append(sceneLines, fmt.Sprintf("Scene %d (%s, %.1fs, tone: %s): %s",
			scene.SceneNumber, scene.Role, scene.Duration, scene.EmotionalTone, scene.Description))
	}

	prompt := fmt.Sprintf(`Write the voiceover script for a short vertical video.
Series: "%s" (%s)
Video title: "%s"

The visuals are already planned as these scenes:
%s

Write one short spoken paragraph per scene, in order. Each paragraph must
fit its scene's duration when read aloud (~2.5 words per second), match
the scene's tone, and flow naturally into the next scene. No camera
directions, no scene labels, just the narration.`,
		series.Title, series.Description, video.Title, strings.Join(sceneLines, "\n"))

	resp, err := getStructuredResponse[ScriptResponse](ctx, client, prompt, scriptResponseSchema)
	if err != nil {
		return "", fmt.Errorf("failed to generate script: %w", err)
	}

	script := strings.TrimSpace(resp.Script)
	if script == "" {
		return "", fmt.Errorf("LLM returned empty script")
	}
	return script, nil
}
