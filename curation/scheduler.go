package curation

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// DefaultDelaySchedule spaces out scene processing so earlier scenes
// don't burn the provider budgets before later scenes get a turn.
// Scene 1 starts immediately; scenes past the end of the slice use the
// last entry. Provider search failures from scene 3 onward were the
// direct symptom this schedule fixes.
var DefaultDelaySchedule = []time.Duration{0, 2 * time.Second, 5 * time.Second}

// expandFromScene is the scene number at which query expansion always
// kicks in. Earlier scenes expand with low probability.
const (
	expandFromScene   = 3
	earlyExpandChance = 0.15
)

// roleVocabulary maps a scene's purpose to diversifying terms. Identical
// search terms across scenes return the same top results, which dedup
// then rejects, producing false "no content" failures.
var roleVocabulary = map[string][]string{
	"tips":       {"mistakes", "pitfalls", "lessons"},
	"warning":    {"mistakes", "pitfalls", "caution"},
	"conclusion": {"summary", "takeaways", "recap"},
	"hook":       {"cinematic", "aerial view", "dramatic"},
	"intro":      {"cinematic", "establishing shot"},
}

var defaultVocabulary = []string{"closeup", "detail", "scenic", "perspective"}

// SearchFunc runs the actual provider work for one scene: it receives
// the (possibly expanded) query and the rotated provider order and
// returns the raw candidate pool.
type SearchFunc func(ctx context.Context, query string, order []Provider) ([]MediaCandidate, error)

// SceneScheduler applies the per-scene policies (progressive delay,
// query expansion, provider rotation) and records a diagnostic for
// every scene regardless of outcome.
type SceneScheduler struct {
	Delays    []time.Duration
	Providers []Provider

	mu      sync.Mutex
	records []*SceneRecord

	rand  *rand.Rand
	sleep func(context.Context, time.Duration) error
}

func NewSceneScheduler(providers []Provider) *SceneScheduler {
	return &SceneScheduler{
		Delays:    DefaultDelaySchedule,
		Providers: providers,
		rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:     sleepCtx,
	}
}

// Delay returns how long to wait before starting the given scene.
func (s *SceneScheduler) Delay(sceneNumber int) time.Duration {
	if len(s.Delays) == 0 || sceneNumber <= 1 {
		return 0
	}
	idx := sceneNumber - 1
	if idx >= len(s.Delays) {
		idx = len(s.Delays) - 1
	}
	return s.Delays[idx]
}

// ExpandQuery joins the scene's keywords and, at or beyond the
// expansion threshold, appends a diversifying term chosen from the
// scene role's vocabulary.
func (s *SceneScheduler) ExpandQuery(sceneNumber int, keywords []string, role string) string {
	base := strings.Join(keywords, " ")
	if sceneNumber < expandFromScene && s.rand.Float64() >= earlyExpandChance {
		return base
	}
	vocab, ok := roleVocabulary[strings.ToLower(role)]
	if !ok {
		vocab = defaultVocabulary
	}
	term := vocab[(sceneNumber-1)%len(vocab)]
	return base + " " + term
}

// ProviderOrder rotates the priority list by (sceneNumber-1) mod n so
// no single provider is hit first by every scene.
func (s *SceneScheduler) ProviderOrder(sceneNumber int) []Provider {
	n := len(s.Providers)
	if n == 0 {
		return nil
	}
	offset := (sceneNumber - 1) % n
	order := make([]Provider, 0, n)
	for i := 0; i < n; i++ {
		order = append(order, s.Providers[(offset+i)%n])
	}
	return order
}

// Process applies the scene policies, invokes fn, and records a
// SceneRecord either way. The underlying error is returned after
// recording so the caller can run its fallback logic. The returned
// record pointer stays valid for the caller to amend with the final
// outcome (state, synthetic counts).
func (s *SceneScheduler) Process(ctx context.Context, req SceneMediaRequest, fn SearchFunc) ([]MediaCandidate, *SceneRecord, error) {
	start := time.Now()

	if d := s.Delay(req.SceneNumber); d > 0 {
		if err := s.sleep(ctx, d); err != nil {
			rec := s.append(req, "", nil, 0, start, err)
			return nil, rec, err
		}
	}

	query := s.ExpandQuery(req.SceneNumber, req.SearchKeywords, req.Context.Purpose)
	order := s.ProviderOrder(req.SceneNumber)

	candidates, err := fn(ctx, query, order)
	rec := s.append(req, query, order, len(candidates), start, err)
	if err != nil {
		return nil, rec, err
	}
	return candidates, rec, nil
}

func (s *SceneScheduler) append(req SceneMediaRequest, query string, order []Provider, results int, start time.Time, err error) *SceneRecord {
	rec := &SceneRecord{
		SceneNumber:   req.SceneNumber,
		Success:       err == nil,
		DurationMs:    time.Since(start).Milliseconds(),
		QueryUsed:     query,
		ProviderOrder: order,
		ResultCount:   results,
		StartedAt:     start,
	}
	if err != nil {
		rec.Error = err.Error()
	}

	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()
	return rec
}

// Records returns a snapshot of all scene diagnostics collected so far.
func (s *SceneScheduler) Records() []SceneRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SceneRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, *r)
	}
	return out
}
