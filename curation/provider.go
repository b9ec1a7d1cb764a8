package curation

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// Minimum acceptable resolution for images, and the matching floor
	// for video variants.
	minMediaWidth  = 1280
	minMediaHeight = 720

	stockSearchTimeout = 10 * time.Second
	placeSearchTimeout = 15 * time.Second
)

// SearchProvider is the capability every provider adapter implements:
// a normalized search returning candidates in the common shape. An empty
// slice means "no results", which is not an error.
type SearchProvider interface {
	Name() Provider
	Search(ctx context.Context, query string, kind MediaKind, limit int) ([]MediaCandidate, error)
}

// PlacePhotoProvider is the location-aware variant, able to resolve a
// free-text query to place entities and fetch each place's photos.
type PlacePhotoProvider interface {
	SearchProvider
	FetchPlacePhotos(ctx context.Context, placeRef string) ([]MediaCandidate, error)
}

// checkResponse maps HTTP failure statuses to the error taxonomy:
// 429 becomes RateLimitExceededError, anything else >= 400 becomes a
// ProviderError. A nil return means the body is safe to decode.
func checkResponse(p Provider, resp *http.Response) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := time.Minute
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		return &RateLimitExceededError{Provider: p, RetryAfter: retryAfter}
	}
	if resp.StatusCode >= 400 {
		return &ProviderError{Provider: p, Cause: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	return nil
}

// observeRateHeaders feeds provider-returned rate-limit headers back
// into the governor so local bookkeeping tracks ground truth.
func observeRateHeaders(g *RateLimitGovernor, p Provider, resp *http.Response) {
	remaining := resp.Header.Get("X-Ratelimit-Remaining")
	if remaining == "" {
		remaining = resp.Header.Get("X-RateLimit-Remaining")
	}
	if remaining == "" {
		return
	}
	rem, err := strconv.Atoi(remaining)
	if err != nil {
		return
	}

	var reset time.Time
	if rs := resp.Header.Get("X-Ratelimit-Reset"); rs != "" {
		if epoch, err := strconv.ParseInt(rs, 10, 64); err == nil {
			reset = time.Unix(epoch, 0)
		}
	}
	g.Observe(p, rem, reset)
}

// meetsResolutionFloor reports whether a variant is usable at all.
func meetsResolutionFloor(width, height int) bool {
	return width >= minMediaWidth && height >= minMediaHeight
}

// splitTags turns a provider's free-text tags/description into
// lowercase tokens for keyword matching.
func splitTags(s string) []string {
	var out []string
	for _, t := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' '
	}) {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
