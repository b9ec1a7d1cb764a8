package processing

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/hitechparadigm/youtube-video-upload/models"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// --- Scene Generation Structs and Logic ---

// SceneBreakdown is the structured output for the scene planning call.
type SceneBreakdown struct {
	Scenes []SceneDescription `json:"scenes" jsonschema_description:"A list of distinct visual scenes that will make up the video. Aim for 3-5 scenes."`
}

// SceneDescription represents a single scene's details, including the
// inputs the media curation stage needs.
type SceneDescription struct {
	Description    string   `json:"description" jsonschema_description:"A detailed, visual description of the scene's action and setting."`
	Duration       float32  `json:"duration" jsonschema_description:"The approximate duration of this scene in seconds (e.g., 4.5). Sum of durations should be around 15-30 seconds."`
	SearchKeywords []string `json:"search_keywords" jsonschema_description:"2-4 short stock-media search phrases for this scene, most specific first (e.g., 'Eiffel Tower sunset')."`
	Role           string   `json:"role" jsonschema_description:"The scene's narrative role: hook, intro, content, tips, warning, or conclusion."`
	EmotionalTone  string   `json:"emotional_tone" jsonschema_description:"The dominant feeling of the scene, e.g. exciting, calm, urgent."`
	VisualsNeeded  int      `json:"visuals_needed" jsonschema_description:"How many distinct images or clips this scene needs, usually 1-4."`
	PacingStrategy string   `json:"pacing_strategy" jsonschema_description:"How visuals are cut: dynamic, steady, or slow."`
}

var sceneBreakdownSchema = GenerateSchema[SceneBreakdown]()

// GenerateScenes generates the scene plan for a video title: visual
// descriptions plus the search keywords, role, tone and pacing that
// drive media curation downstream.
func GenerateScenes(ctx context.Context, series models.Series, videoTitle string) ([]models.VideoScene, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	breakdownPrompt := fmt.Sprintf(`You are a visual storyteller planning a short vertical video for a series titled "%s" with the description "%s".
The video's title is: "%s".
Break the video into 3 to 5 distinct scenes. For each scene provide:
- a detailed description of the setting and action
- an approximate duration in seconds (total 15-30 seconds)
- 2 to 4 stock-media search phrases, most specific first
- the scene's narrative role (hook, intro, content, tips, warning, conclusion)
- the emotional tone
- how many distinct visuals the scene needs (1-4)
- a pacing strategy: dynamic (fast cuts), steady, or slow`,
		series.Title, series.Description, videoTitle)

	breakdownResponse, err := getStructuredResponse[SceneBreakdown](ctx, client, breakdownPrompt, sceneBreakdownSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to generate scene breakdown: %w", err)
	}

	if len(breakdownResponse.Scenes) == 0 {
		return nil, fmt.Errorf("LLM returned no scenes")
	}

	var videoScenes []models.VideoScene
	for i, sceneDesc := range breakdownResponse.Scenes {
		visuals := sceneDesc.VisualsNeeded
		if visuals < 1 {
			visuals = 1
		}
		avg := float32(0)
		if visuals > 0 {
			avg = sceneDesc.Duration / float32(visuals)
		}
		videoScenes = append(videoScenes, models.VideoScene{
			SceneNumber:    i + 1,
			Description:    sceneDesc.Description,
			Duration:       sceneDesc.Duration,
			SearchKeywords: strings.Join(sceneDesc.SearchKeywords, ","),
			Role:           strings.ToLower(strings.TrimSpace(sceneDesc.Role)),
			EmotionalTone:  sceneDesc.EmotionalTone,
			VisualsNeeded:  visuals,
			PacingStrategy: normalizePacing(sceneDesc.PacingStrategy),
			AvgVisualSecs:  avg,
		})
	}

	return videoScenes, nil
}

func normalizePacing(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dynamic":
		return "dynamic"
	case "slow":
		return "slow"
	default:
		return "steady"
	}
}

// getStructuredResponse is a helper function to call the OpenAI API with JSON schema enforcement
func getStructuredResponse[T any](ctx context.Context, client openai.Client, prompt string, schema interface{}) (*T, error) {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "structured_response",
		Description: openai.String("Structured data response"),
		Schema:      schema,
		Strict:      openai.Bool(true),
	}

	chatCompletion, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModelGPT4oMini,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
	})

	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(chatCompletion.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	rawResponse := chatCompletion.Choices[0].Message.Content

	var structuredResponse T
	if err := json.Unmarshal([]byte(rawResponse), &structuredResponse); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAI JSON response: %w\nRaw content: %s", err, rawResponse)
	}

	return &structuredResponse, nil
}
