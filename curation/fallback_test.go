package curation

import (
	"bytes"
	"context"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerateAlwaysReturnsAsset(t *testing.T) {
	// Every remote strategy fails; the local placeholder must still
	// produce a real asset with no I/O.
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer broken.Close()

	f := NewFallbackGenerator()
	f.PhotoBaseURL = broken.URL
	f.RandomBaseURL = broken.URL

	asset := f.Generate(context.Background(), "eiffel tower", SceneContext{Purpose: "conclusion"}, 0)
	if asset == nil {
		t.Fatal("fallback returned nil")
	}
	if !asset.Synthetic {
		t.Error("fallback asset not tagged synthetic")
	}
	if asset.FallbackStrategy != StrategyLocalPlaceholder {
		t.Errorf("strategy = %q, want %q", asset.FallbackStrategy, StrategyLocalPlaceholder)
	}
	if asset.ContentHash == "" || len(asset.Bytes) == 0 {
		t.Error("placeholder asset missing bytes or hash")
	}

	// The placeholder must be a decodable PNG at the resolution floor.
	img, err := png.Decode(bytes.NewReader(asset.Bytes))
	if err != nil {
		t.Fatalf("placeholder is not a valid PNG: %v", err)
	}
	if img.Bounds().Dx() != minMediaWidth || img.Bounds().Dy() != minMediaHeight {
		t.Errorf("placeholder size %v, want %dx%d", img.Bounds(), minMediaWidth, minMediaHeight)
	}
}

func TestGenerateUsesThemedQueryFirst(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write(fakeJPEG(2048, 9))
	}))
	defer ts.Close()

	f := NewFallbackGenerator()
	f.PhotoBaseURL = ts.URL
	f.RandomBaseURL = ts.URL

	asset := f.Generate(context.Background(), "paris skyline", SceneContext{Purpose: "conclusion"}, 0)
	if asset.FallbackStrategy != StrategyThemedQuery {
		t.Fatalf("strategy = %q, want %q", asset.FallbackStrategy, StrategyThemedQuery)
	}
	if !asset.Synthetic {
		t.Error("themed fallback not tagged synthetic")
	}
	// Keyword and role theme both appear in the request path.
	want := "/1280/720/paris,skyline,success"
	if gotPath != want {
		t.Errorf("themed query path = %q, want %q", gotPath, want)
	}
}

func TestGenerateFallsBackToRandomImage(t *testing.T) {
	themed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such tag", http.StatusNotFound)
	}))
	defer themed.Close()
	random := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(fakeJPEG(2048, 3))
	}))
	defer random.Close()

	f := NewFallbackGenerator()
	f.PhotoBaseURL = themed.URL
	f.RandomBaseURL = random.URL

	asset := f.Generate(context.Background(), "obscure topic", SceneContext{}, 2)
	if asset.FallbackStrategy != StrategyRandomImage {
		t.Fatalf("strategy = %q, want %q", asset.FallbackStrategy, StrategyRandomImage)
	}
}
