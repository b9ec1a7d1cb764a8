package curation

import (
	"fmt"
	"reflect"
	"testing"
)

func stockCandidate(id string, p Provider, kind MediaKind, width, height int, tags ...string) MediaCandidate {
	return MediaCandidate{
		ID:          id,
		Provider:    p,
		Kind:        kind,
		DownloadURL: "https://cdn.example.com/" + id,
		PageURL:     "https://example.com/" + id,
		Width:       width,
		Height:      height,
		Tags:        tags,
	}
}

func TestSelectIsDeterministic(t *testing.T) {
	var sel CandidateSelector
	req := SceneMediaRequest{
		SceneNumber:    1,
		SearchKeywords: []string{"eiffel tower"},
		Pacing:         ScenePacing{VisualsNeeded: 3, Strategy: "steady"},
	}
	order := []Provider{ProviderPexels, ProviderPixabay}

	pool := []MediaCandidate{
		stockCandidate("a", ProviderPexels, KindImage, 1920, 1080, "eiffel", "tower"),
		stockCandidate("b", ProviderPixabay, KindImage, 1280, 720, "tower"),
		stockCandidate("c", ProviderPexels, KindVideo, 1920, 1080),
		stockCandidate("d", ProviderPixabay, KindVideo, 1280, 720, "eiffel"),
	}

	first := sel.Select(pool, 3, req, NewDedupState(), order)
	second := sel.Select(pool, 3, req, NewDedupState(), order)

	if len(first) != 3 {
		t.Fatalf("expected 3 picks, got %d", len(first))
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("same inputs produced different rankings")
	}
}

func TestSelectDiversityAcrossProviders(t *testing.T) {
	var sel CandidateSelector
	req := SceneMediaRequest{
		SceneNumber:    1,
		SearchKeywords: []string{"ocean"},
		Pacing:         ScenePacing{VisualsNeeded: 4},
	}
	order := []Provider{ProviderPexels, ProviderPixabay}

	// Pexels dominates on source score; without the diversity pass the
	// first half would be all pexels images.
	var pool []MediaCandidate
	for i := 0; i < 4; i++ {
		pool = append(pool, stockCandidate(fmt.Sprintf("pex-%d", i), ProviderPexels, KindImage, 1920, 1080, "ocean"))
	}
	for i := 0; i < 4; i++ {
		pool = append(pool, stockCandidate(fmt.Sprintf("pix-%d", i), ProviderPixabay, KindImage, 1920, 1080, "ocean"))
	}

	picked := sel.Select(pool, 4, req, NewDedupState(), order)
	if len(picked) != 4 {
		t.Fatalf("expected 4 picks, got %d", len(picked))
	}

	pairs := make(map[providerKind]struct{})
	for _, sc := range picked[:2] {
		pairs[providerKind{sc.Provider, sc.Kind}] = struct{}{}
	}
	if len(pairs) < 2 {
		t.Fatalf("first half of selection has only %d distinct (provider, kind) pairs", len(pairs))
	}
}

func TestSelectDropsUsedURLs(t *testing.T) {
	var sel CandidateSelector
	req := SceneMediaRequest{SceneNumber: 1, Pacing: ScenePacing{VisualsNeeded: 2}}
	order := []Provider{ProviderPexels}

	pool := []MediaCandidate{
		stockCandidate("a", ProviderPexels, KindImage, 1920, 1080),
		stockCandidate("b", ProviderPexels, KindImage, 1920, 1080),
	}

	dedup := NewDedupState()
	dedup.SeedURLs([]string{pool[0].PageURL})

	picked := sel.Select(pool, 2, req, dedup, order)
	if len(picked) != 1 || picked[0].ID != "b" {
		t.Fatalf("used candidate not filtered: %+v", picked)
	}
}

func TestSelectFullyDuplicatedPoolReturnsEmpty(t *testing.T) {
	var sel CandidateSelector
	req := SceneMediaRequest{SceneNumber: 2, Pacing: ScenePacing{VisualsNeeded: 3}}

	pool := []MediaCandidate{
		stockCandidate("a", ProviderPexels, KindImage, 1920, 1080),
		stockCandidate("b", ProviderPixabay, KindImage, 1920, 1080),
	}
	dedup := NewDedupState()
	dedup.SeedURLs([]string{pool[0].DownloadURL, pool[1].PageURL})

	if picked := sel.Select(pool, 3, req, dedup, []Provider{ProviderPexels, ProviderPixabay}); len(picked) != 0 {
		t.Fatalf("expected empty selection from fully duplicated pool, got %d", len(picked))
	}
}

func TestSelectReturnsFewerThanTarget(t *testing.T) {
	var sel CandidateSelector
	req := SceneMediaRequest{SceneNumber: 1, Pacing: ScenePacing{VisualsNeeded: 5}}

	pool := []MediaCandidate{stockCandidate("only", ProviderPexels, KindImage, 1920, 1080)}
	picked := sel.Select(pool, 5, req, NewDedupState(), []Provider{ProviderPexels})
	if len(picked) != 1 {
		t.Fatalf("expected short result, got %d", len(picked))
	}
}

func TestScoringFavorsPlacesForTravelContent(t *testing.T) {
	req := SceneMediaRequest{
		SceneNumber:    1,
		SearchKeywords: []string{"Eiffel Tower Paris"},
		Context:        SceneContext{Title: "Hidden gems of Paris"},
	}
	if !isLocationContent(req) {
		t.Fatal("travel request not detected as location content")
	}

	place := MediaCandidate{
		ID: "pl", Provider: ProviderPlaces, Kind: KindImage,
		Width: 1920, Height: 1080,
		PlaceRating: 4.7, PlaceTypes: []string{"tourist_attraction"},
	}
	stock := MediaCandidate{
		ID: "st", Provider: ProviderPexels, Kind: KindImage,
		Width: 1920, Height: 1080,
	}

	placeScore := scoreRelevance(place, req, true)
	stockScore := scoreRelevance(stock, req, true)
	if placeScore <= stockScore {
		t.Errorf("place candidate %f not favored over stock %f", placeScore, stockScore)
	}
}
