package curation

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// fakeProvider is an in-memory SearchProvider for end-to-end curator
// tests. Downloads still go over HTTP so the validator is exercised.
type fakeProvider struct {
	name     Provider
	results  []MediaCandidate
	err      error
	searches int
}

func (f *fakeProvider) Name() Provider { return f.name }

func (f *fakeProvider) Search(ctx context.Context, query string, kind MediaKind, limit int) ([]MediaCandidate, error) {
	f.searches++
	if f.err != nil {
		return nil, f.err
	}
	var out []MediaCandidate
	for _, c := range f.results {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out, nil
}

// imageServer serves a distinct valid JPEG payload per path.
func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		marker := byte(len(r.URL.Path)) // distinct bytes per URL
		for _, ch := range r.URL.Path {
			marker ^= byte(ch)
		}
		w.Write(fakeJPEG(12*1024, marker))
	}))
}

func brokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
}

func providerCandidates(ts *httptest.Server, p Provider, n int) []MediaCandidate {
	var out []MediaCandidate
	for i := 0; i < n; i++ {
		out = append(out, MediaCandidate{
			ID:          fmt.Sprintf("%s-%d", p, i),
			Provider:    p,
			Kind:        KindImage,
			DownloadURL: fmt.Sprintf("%s/%s/img-%d", ts.URL, p, i),
			PageURL:     fmt.Sprintf("https://%s.example/%d", p, i),
			Width:       1920,
			Height:      1080,
			Tags:        []string{"eiffel", "tower", "paris"},
		})
	}
	return out
}

func testCurator(t *testing.T, providers []SearchProvider, dedup *DedupState) (*Curator, *httptest.Server) {
	t.Helper()
	broken := brokenServer(t)
	t.Cleanup(broken.Close)

	names := make([]Provider, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	sched := NewSceneScheduler(names)
	sched.Delays = []time.Duration{0}
	sched.sleep = func(context.Context, time.Duration) error { return nil }

	fb := NewFallbackGenerator()
	fb.PhotoBaseURL = broken.URL
	fb.RandomBaseURL = broken.URL

	cfg := DefaultCuratorConfig()
	cfg.SceneTimeout = 10 * time.Second

	cur := NewCurator(providers, sched, NewAcquisitionValidator(), fb, dedup, cfg)
	cur.retry = retryPolicy{maxAttempts: 2, backoff: 0}
	return cur, broken
}

func TestCurateSceneHappyPath(t *testing.T) {
	ts := imageServer(t)
	defer ts.Close()

	pexels := &fakeProvider{name: ProviderPexels, results: providerCandidates(ts, ProviderPexels, 5)}
	pixabay := &fakeProvider{name: ProviderPixabay, results: providerCandidates(ts, ProviderPixabay, 5)}

	dedup := NewDedupState()
	cur, _ := testCurator(t, []SearchProvider{pexels, pixabay}, dedup)

	req := SceneMediaRequest{
		SceneNumber:    1,
		SearchKeywords: []string{"Eiffel Tower", "Paris skyline"},
		Pacing:         ScenePacing{VisualsNeeded: 3, Strategy: "steady"},
		Context:        SceneContext{Purpose: "hook", Title: "Paris in a day"},
	}

	assets, rec := cur.CurateScene(context.Background(), req)
	if len(assets) != 3 {
		t.Fatalf("expected 3 assets, got %d", len(assets))
	}
	if rec.FinalState != StateSatisfied {
		t.Errorf("state = %s, want satisfied", rec.FinalState)
	}

	hashes := make(map[string]struct{})
	sources := make(map[Provider]struct{})
	for _, a := range assets {
		if a.Synthetic {
			t.Error("happy path produced a synthetic asset")
		}
		if _, dup := hashes[a.ContentHash]; dup {
			t.Error("duplicate content hash across accepted assets")
		}
		hashes[a.ContentHash] = struct{}{}
		sources[a.Provider] = struct{}{}
	}
	if len(sources) < 2 {
		t.Errorf("expected at least 2 providers represented, got %d", len(sources))
	}
}

func TestCurateSceneContinuesWhenProviderRateLimited(t *testing.T) {
	ts := imageServer(t)
	defer ts.Close()

	pexels := &fakeProvider{
		name: ProviderPexels,
		err:  &RateLimitExceededError{Provider: ProviderPexels, RetryAfter: time.Minute},
	}
	pixabay := &fakeProvider{name: ProviderPixabay, results: providerCandidates(ts, ProviderPixabay, 5)}

	cur, _ := testCurator(t, []SearchProvider{pexels, pixabay}, NewDedupState())

	req := SceneMediaRequest{
		SceneNumber:    1,
		SearchKeywords: []string{"harbor"},
		Pacing:         ScenePacing{VisualsNeeded: 2},
	}

	assets, rec := cur.CurateScene(context.Background(), req)
	if len(assets) != 2 {
		t.Fatalf("scene should be served by the healthy provider, got %d assets", len(assets))
	}
	for _, a := range assets {
		if a.Synthetic {
			t.Error("healthy provider available but synthetic asset produced")
		}
		if a.Provider != ProviderPixabay {
			t.Errorf("asset from %s, want pixabay", a.Provider)
		}
	}
	foundFailed := false
	for _, p := range rec.FailedProviders {
		if p == ProviderPexels {
			foundFailed = true
		}
	}
	if !foundFailed {
		t.Errorf("rate-limited provider not recorded as failed: %v", rec.FailedProviders)
	}
}

func TestCurateSceneFullyDuplicatedPoolFallsBack(t *testing.T) {
	ts := imageServer(t)
	defer ts.Close()

	cands := providerCandidates(ts, ProviderPexels, 4)
	pexels := &fakeProvider{name: ProviderPexels, results: cands}

	dedup := NewDedupState()
	var urls []string
	for _, c := range cands {
		urls = append(urls, c.PageURL, c.DownloadURL)
	}
	dedup.SeedURLs(urls)

	cur, _ := testCurator(t, []SearchProvider{pexels}, dedup)

	req := SceneMediaRequest{
		SceneNumber:    2,
		SearchKeywords: []string{"harbor"},
		Pacing:         ScenePacing{VisualsNeeded: 2},
	}

	assets, rec := cur.CurateScene(context.Background(), req)
	if rec.FinalState != StateExhausted {
		t.Fatalf("state = %s, want exhausted", rec.FinalState)
	}
	if len(assets) != 2 {
		t.Fatalf("fallback should fill the full target, got %d", len(assets))
	}
	for _, a := range assets {
		if !a.Synthetic {
			t.Error("exhausted scene produced a non-synthetic asset")
		}
		if a.FallbackStrategy == "" {
			t.Error("synthetic asset missing fallback strategy tag")
		}
	}
	if rec.SyntheticCount != 2 || rec.Success {
		t.Errorf("record not amended: %+v", rec)
	}
	if pexels.searches < 2 {
		t.Errorf("expected an expanded retry search before falling back, got %d searches", pexels.searches)
	}
}

func TestCurateSceneSkipsCorruptDownloads(t *testing.T) {
	good := imageServer(t)
	defer good.Close()
	corrupt := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("<html>error page</html>", 600)))
	}))
	defer corrupt.Close()

	cands := providerCandidates(good, ProviderPexels, 3)
	// The top pick returns HTML instead of image bytes.
	cands[0].DownloadURL = corrupt.URL + "/fake.jpg"

	pexels := &fakeProvider{name: ProviderPexels, results: cands}
	cur, _ := testCurator(t, []SearchProvider{pexels}, NewDedupState())

	req := SceneMediaRequest{
		SceneNumber:    1,
		SearchKeywords: []string{"paris"},
		Pacing:         ScenePacing{VisualsNeeded: 2},
	}

	assets, _ := cur.CurateScene(context.Background(), req)
	if len(assets) != 2 {
		t.Fatalf("expected 2 assets after skipping corrupt download, got %d", len(assets))
	}
	for _, a := range assets {
		if a.Synthetic {
			t.Error("valid candidates remained but synthetic asset produced")
		}
		if a.Source != nil && a.Source.DownloadURL == cands[0].DownloadURL {
			t.Error("corrupt candidate was accepted")
		}
	}
}

func TestCurateProjectDedupAcrossScenes(t *testing.T) {
	ts := imageServer(t)
	defer ts.Close()

	// Both providers return the same small pool for every scene, so
	// later scenes can only be satisfied by what dedup hasn't consumed.
	pexels := &fakeProvider{name: ProviderPexels, results: providerCandidates(ts, ProviderPexels, 6)}
	pixabay := &fakeProvider{name: ProviderPixabay, results: providerCandidates(ts, ProviderPixabay, 6)}

	dedup := NewDedupState()
	cur, _ := testCurator(t, []SearchProvider{pexels, pixabay}, dedup)

	reqs := []SceneMediaRequest{
		{SceneNumber: 1, SearchKeywords: []string{"tower"}, Pacing: ScenePacing{VisualsNeeded: 3}},
		{SceneNumber: 2, SearchKeywords: []string{"tower"}, Pacing: ScenePacing{VisualsNeeded: 3}},
		{SceneNumber: 3, SearchKeywords: []string{"tower"}, Pacing: ScenePacing{VisualsNeeded: 3}},
	}

	perScene, err := cur.CurateProject(context.Background(), reqs)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if len(perScene) != 3 {
		t.Fatalf("expected 3 scene results, got %d", len(perScene))
	}

	seen := make(map[string]int)
	for _, assets := range perScene {
		for _, a := range assets {
			if a.Synthetic {
				continue
			}
			seen[a.ContentHash]++
			if a.Source != nil {
				seen["url:"+a.Source.DownloadURL]++
			}
		}
	}
	for key, n := range seen {
		if n > 1 {
			t.Errorf("%s accepted %d times across the project", key, n)
		}
	}

	if len(cur.Records()) < 3 {
		t.Errorf("expected a record per scene, got %d", len(cur.Records()))
	}
}
