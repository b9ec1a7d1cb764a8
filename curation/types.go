package curation

import "time"

// Provider identifies a content provider.
type Provider string

const (
	ProviderPexels  Provider = "pexels"
	ProviderPixabay Provider = "pixabay"
	ProviderPlaces  Provider = "places"
)

// MediaKind distinguishes still images from video clips.
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
)

// MediaCandidate is the normalized shape every provider adapter maps its
// results into. Candidates are produced fresh per search call and never
// persisted directly.
type MediaCandidate struct {
	ID              string
	Provider        Provider
	Kind            MediaKind
	DownloadURL     string
	PageURL         string
	Width           int
	Height          int
	DurationSeconds float64
	Attribution     string
	Tags            []string

	// Place-search extras, zero for stock providers.
	PlaceRating float64
	PlaceTypes  []string
}

// ScenePacing describes how many visuals a scene needs and how they
// should be cut together.
type ScenePacing struct {
	VisualsNeeded        int
	AverageVisualSeconds float64
	Strategy             string // "dynamic", "steady", "slow"
}

// SceneContext carries the script-level framing of a scene.
type SceneContext struct {
	Purpose         string // "hook", "content", "tips", "conclusion"
	EmotionalTone   string
	Title           string
	DurationSeconds float64
}

// SceneMediaRequest is the read-only input for curating one scene.
type SceneMediaRequest struct {
	SceneNumber    int
	SearchKeywords []string
	Pacing         ScenePacing
	Context        SceneContext
}

// ScoredCandidate is a MediaCandidate with its selection scores attached.
// Ephemeral, recomputed every selection pass.
type ScoredCandidate struct {
	MediaCandidate
	RelevanceScore float64
	QualityScore   float64
	SourceScore    float64
	TotalScore     float64
}

// MediaAsset is validated, downloaded content ready for the caller to
// persist. Synthetic assets come from the fallback generator and are
// always tagged as such.
type MediaAsset struct {
	Bytes            []byte
	Provider         Provider
	Kind             MediaKind
	Attribution      string
	ContentHash      string
	Synthetic        bool
	FallbackStrategy string
	Source           *MediaCandidate
}

// SceneState tracks where a scene is in the curation state machine.
type SceneState string

const (
	StateNotStarted         SceneState = "not_started"
	StateSearching          SceneState = "searching"
	StateScoring            SceneState = "scoring"
	StateValidating         SceneState = "validating"
	StateSatisfied          SceneState = "satisfied"
	StatePartiallySatisfied SceneState = "partially_satisfied"
	StateExhausted          SceneState = "exhausted"
)

// SceneRecord is the diagnostic record appended for every processed scene,
// success or failure. Never mutated after the scene completes.
type SceneRecord struct {
	SceneNumber     int
	Success         bool
	DurationMs      int64
	QueryUsed       string
	ProviderOrder   []Provider
	ResultCount     int
	SyntheticCount  int
	FailedProviders []Provider
	FinalState      SceneState
	Error           string
	StartedAt       time.Time
}
