package curation

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// CuratorConfig tunes the per-scene acquisition loop.
type CuratorConfig struct {
	// SearchLimit is the per-provider, per-kind candidate request size.
	SearchLimit int
	// DownloadWorkers bounds concurrent candidate downloads within a
	// scene so outbound bandwidth isn't saturated.
	DownloadWorkers int
	// MaxSearchAttempts is how many search passes (with progressively
	// expanded queries) a scene gets before it is declared exhausted.
	MaxSearchAttempts int
	// SceneTimeout caps one scene's total processing time.
	SceneTimeout time.Duration
}

func DefaultCuratorConfig() CuratorConfig {
	return CuratorConfig{
		SearchLimit:       8,
		DownloadWorkers:   3,
		MaxSearchAttempts: 3,
		SceneTimeout:      90 * time.Second,
	}
}

// extraTerms diversify retry queries after the first search pass came
// back empty or fully duplicated.
var extraTerms = []string{"", "alternative view", "different angle"}

// Curator drives the full acquisition engine for a project: scenes are
// processed sequentially (concurrent scenes would defeat the
// progressive-delay and rotation strategies), provider searches within
// a scene run concurrently, and every accepted asset has passed the
// validation gate. A scene can always be served: when acquisition is
// exhausted, synthetic fallback assets fill the remainder.
type Curator struct {
	providers map[Provider]SearchProvider
	scheduler *SceneScheduler
	selector  CandidateSelector
	validator *AcquisitionValidator
	fallback  *FallbackGenerator
	dedup     *DedupState
	retry     retryPolicy
	cfg       CuratorConfig
}

func NewCurator(providers []SearchProvider, scheduler *SceneScheduler, validator *AcquisitionValidator, fallback *FallbackGenerator, dedup *DedupState, cfg CuratorConfig) *Curator {
	byName := make(map[Provider]SearchProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Curator{
		providers: byName,
		scheduler: scheduler,
		validator: validator,
		fallback:  fallback,
		dedup:     dedup,
		retry:     defaultRetryPolicy(),
		cfg:       cfg,
	}
}

// Records exposes the per-scene diagnostics collected so far.
func (c *Curator) Records() []SceneRecord {
	return c.scheduler.Records()
}

// CurateProject processes scenes strictly in order. It only fails on
// context cancellation; provider outages and poor search results
// degrade to synthetic assets instead of aborting the run.
func (c *Curator) CurateProject(ctx context.Context, reqs []SceneMediaRequest) ([][]MediaAsset, error) {
	out := make([][]MediaAsset, 0, len(reqs))
	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		assets, _ := c.CurateScene(ctx, req)
		out = append(out, assets)
	}
	return out, nil
}

// CurateScene runs the per-scene state machine:
//
//	NotStarted -> Searching -> Scoring -> Validating ->
//	  {Satisfied | PartiallySatisfied | Exhausted}
//
// Exhausted fills the whole target from the fallback generator;
// PartiallySatisfied keeps whatever real content was acquired.
func (c *Curator) CurateScene(ctx context.Context, req SceneMediaRequest) ([]MediaAsset, *SceneRecord) {
	target := req.Pacing.VisualsNeeded
	if target <= 0 {
		target = 1
	}

	sceneCtx, cancel := context.WithTimeout(ctx, c.cfg.SceneTimeout)
	defer cancel()

	var (
		assets []MediaAsset
		failed []Provider
	)
	// URLs rejected by the validator this scene. Rejection doesn't mark
	// a URL as used project-wide, so without this a retry pass would
	// keep re-picking the same broken candidate.
	rejectedURLs := make(map[string]struct{})

	candidates, rec, err := c.scheduler.Process(sceneCtx, req, func(fctx context.Context, query string, order []Provider) ([]MediaCandidate, error) {
		pool, failedProviders := c.searchAll(fctx, query, order, req)
		failed = failedProviders
		return pool, nil
	})
	if err != nil {
		log.Printf("Scene %d: scheduling failed: %v", req.SceneNumber, err)
	}

	rec.FinalState = StateScoring
	order := c.scheduler.ProviderOrder(req.SceneNumber)

	// Search/score/validate passes with expanded retry queries until the
	// target is met, the retries are spent, or the scene times out.
	retryErr := c.retry.run(sceneCtx, func(attempt int) (bool, error) {
		if attempt > 1 {
			// Re-search with a further diversified query; the first pass
			// pool was insufficient (empty, duplicated, or rejected).
			extra := extraTerms[(attempt-1)%len(extraTerms)]
			query := rec.QueryUsed
			if extra != "" {
				query += " " + extra
			}
			log.Printf("Scene %d: search attempt %d with query %q", req.SceneNumber, attempt, query)
			candidates, failed = c.searchAll(sceneCtx, query, order, req)
		}

		pool := candidates
		if len(rejectedURLs) > 0 {
			pool = make([]MediaCandidate, 0, len(candidates))
			for _, cand := range candidates {
				if _, ok := rejectedURLs[cand.DownloadURL]; !ok {
					pool = append(pool, cand)
				}
			}
		}

		selected := c.selector.Select(pool, target-len(assets), req, c.dedup, order)
		if len(selected) == 0 {
			return false, ErrAcquisitionExhausted
		}

		rec.FinalState = StateValidating
		accepted, rejected := c.acquireAll(sceneCtx, selected)
		for _, u := range rejected {
			rejectedURLs[u] = struct{}{}
		}
		assets = append(assets, accepted...)

		if len(assets) >= target {
			return true, nil
		}
		return false, ErrAcquisitionExhausted
	})

	realCount := len(assets)
	switch {
	case realCount >= target:
		rec.FinalState = StateSatisfied
	case realCount > 0:
		// Real content is preferred over forcing a full fallback fill.
		rec.FinalState = StatePartiallySatisfied
	default:
		rec.FinalState = StateExhausted
		if retryErr != nil && !errors.Is(retryErr, ErrAcquisitionExhausted) {
			log.Printf("Scene %d: acquisition failed: %v", req.SceneNumber, retryErr)
		}
		keyword := rec.QueryUsed
		if keyword == "" && len(req.SearchKeywords) > 0 {
			keyword = req.SearchKeywords[0]
		}
		for i := 0; i < target; i++ {
			assets = append(assets, *c.fallback.Generate(sceneCtx, keyword, req.Context, i))
		}
	}

	rec.Success = realCount > 0
	rec.SyntheticCount = len(assets) - realCount
	rec.FailedProviders = failed
	rec.ResultCount = len(assets)
	log.Printf("Scene %d: %s with %d real, %d synthetic assets", req.SceneNumber, rec.FinalState, realCount, rec.SyntheticCount)
	return assets, rec
}

// searchAll queries every provider in rotation order concurrently.
// Failures are absorbed: a broken or exhausted provider is recorded and
// skipped, never fatal to the scene.
func (c *Curator) searchAll(ctx context.Context, query string, order []Provider, req SceneMediaRequest) ([]MediaCandidate, []Provider) {
	kinds := []MediaKind{KindImage}
	if req.Pacing.Strategy == "dynamic" || req.Pacing.AverageVisualSeconds >= clipUsableMinSec {
		kinds = append(kinds, KindVideo)
	}

	var (
		mu     sync.Mutex
		pool   []MediaCandidate
		failed []Provider
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range order {
		adapter, ok := c.providers[name]
		if !ok {
			continue
		}
		provider := name
		g.Go(func() error {
			for _, kind := range kinds {
				results, err := adapter.Search(gctx, query, kind, c.cfg.SearchLimit)
				if err != nil {
					var rle *RateLimitExceededError
					if errors.As(err, &rle) {
						log.Printf("Provider %s rate limited, retry after %s; continuing with others", provider, rle.RetryAfter)
					} else {
						log.Printf("Provider %s search failed: %v", provider, err)
					}
					mu.Lock()
					failed = appendProviderOnce(failed, provider)
					mu.Unlock()
					return nil // absorbed, other providers continue
				}
				mu.Lock()
				pool = append(pool, results...)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()
	return pool, failed
}

// acquireAll downloads and validates the selected candidates with a
// bounded worker pool, preserving score order in the result. It returns
// the accepted assets and the download URLs of candidates the validator
// rejected (including duplicates), so the caller can stop re-picking
// them.
func (c *Curator) acquireAll(ctx context.Context, selected []ScoredCandidate) ([]MediaAsset, []string) {
	results := make([]*MediaAsset, len(selected))
	rejected := make([]string, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.DownloadWorkers)
	for i, sc := range selected {
		i, sc := i, sc
		g.Go(func() error {
			asset, err := c.validator.Acquire(gctx, sc, c.dedup)
			if err != nil {
				if errors.Is(err, ErrDuplicateContent) {
					log.Printf("Candidate %s: duplicate content, skipping", sc.ID)
				} else {
					log.Printf("Candidate %s: rejected: %v", sc.ID, err)
				}
				rejected[i] = sc.DownloadURL
				return nil
			}
			results[i] = asset
			return nil
		})
	}
	g.Wait()

	var accepted []MediaAsset
	for _, a := range results {
		if a != nil {
			accepted = append(accepted, *a)
		}
	}
	var rejectedURLs []string
	for _, u := range rejected {
		if u != "" {
			rejectedURLs = append(rejectedURLs, u)
		}
	}
	return accepted, rejectedURLs
}

func appendProviderOnce(list []Provider, p Provider) []Provider {
	for _, existing := range list {
		if existing == p {
			return list
		}
	}
	return append(list, p)
}
