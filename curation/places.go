package curation

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
)

// placeTypeQueries are tried in order when resolving a free-text query
// to place entities. If none return results, the query is retried with
// a "landmarks" qualifier appended.
var placeTypeQueries = []string{"tourist_attraction", "point_of_interest"}

const maxPlacesPerQuery = 3

// PlacesClient adapts the Google Places text search and place photo
// APIs. It only produces images; video searches return no candidates.
type PlacesClient struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
	gov     *RateLimitGovernor
}

func NewPlacesClient(apiKey string, gov *RateLimitGovernor) *PlacesClient {
	return &PlacesClient{
		APIKey:  apiKey,
		BaseURL: "https://maps.googleapis.com",
		HTTP:    &http.Client{Timeout: placeSearchTimeout},
		gov:     gov,
	}
}

func (c *PlacesClient) Name() Provider { return ProviderPlaces }

type place struct {
	id     string
	name   string
	rating float64
	types  []string
	photos []placePhoto
}

type placePhoto struct {
	ref    string
	width  int
	height int
}

// Search resolves the query to place entities and fetches photos for
// each. Places are deduplicated by provider-assigned ID before any
// photo fetches happen, to avoid redundant calls.
func (c *PlacesClient) Search(ctx context.Context, query string, kind MediaKind, limit int) ([]MediaCandidate, error) {
	if kind == KindVideo {
		return nil, nil
	}

	places, err := c.resolvePlaces(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(places) == 0 {
		// Retry with a qualifier term; identical queries for specific
		// locations often miss without it.
		places, err = c.resolvePlaces(ctx, query+" landmarks")
		if err != nil {
			return nil, err
		}
	}

	seen := make(map[string]struct{})
	var out []MediaCandidate
	for _, p := range places {
		if _, ok := seen[p.id]; ok {
			continue
		}
		seen[p.id] = struct{}{}
		if len(out) >= limit {
			break
		}
		out = append(out, c.photoCandidates(p, limit-len(out))...)
	}
	return out, nil
}

// FetchPlacePhotos returns photo candidates for one already-resolved
// place reference.
func (c *PlacesClient) FetchPlacePhotos(ctx context.Context, placeRef string) ([]MediaCandidate, error) {
	if err := c.gov.Reserve(ctx, ProviderPlaces); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/maps/api/place/details/json?place_id=%s&fields=name,rating,types,photos&key=%s",
		c.BaseURL, url.QueryEscape(placeRef), c.APIKey)
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	p := parsePlace(gjson.GetBytes(body, "result"))
	p.id = placeRef
	return c.photoCandidates(p, len(p.photos)), nil
}

func (c *PlacesClient) resolvePlaces(ctx context.Context, query string) ([]place, error) {
	var all []place
	for _, placeType := range placeTypeQueries {
		if err := c.gov.Reserve(ctx, ProviderPlaces); err != nil {
			return nil, err
		}

		endpoint := fmt.Sprintf("%s/maps/api/place/textsearch/json?query=%s&type=%s&key=%s",
			c.BaseURL, url.QueryEscape(query), placeType, c.APIKey)
		body, err := c.get(ctx, endpoint)
		if err != nil {
			return nil, err
		}

		status := gjson.GetBytes(body, "status").String()
		if status != "OK" && status != "ZERO_RESULTS" {
			return nil, &ProviderError{Provider: ProviderPlaces, Cause: fmt.Errorf("places status %s", status)}
		}

		results := gjson.GetBytes(body, "results")
		results.ForEach(func(_, r gjson.Result) bool {
			all = append(all, parsePlace(r))
			return len(all) < maxPlacesPerQuery*len(placeTypeQueries)
		})
		if len(all) >= maxPlacesPerQuery {
			break
		}
	}
	return all, nil
}

func parsePlace(r gjson.Result) place {
	p := place{
		id:     r.Get("place_id").String(),
		name:   r.Get("name").String(),
		rating: r.Get("rating").Float(),
	}
	for _, t := range r.Get("types").Array() {
		p.types = append(p.types, t.String())
	}
	for _, ph := range r.Get("photos").Array() {
		p.photos = append(p.photos, placePhoto{
			ref:    ph.Get("photo_reference").String(),
			width:  int(ph.Get("width").Int()),
			height: int(ph.Get("height").Int()),
		})
	}
	return p
}

func (c *PlacesClient) photoCandidates(p place, limit int) []MediaCandidate {
	var out []MediaCandidate
	for i, ph := range p.photos {
		if i >= limit {
			break
		}
		if !meetsResolutionFloor(ph.width, ph.height) {
			continue
		}
		out = append(out, MediaCandidate{
			ID:          fmt.Sprintf("places-%s-%d", p.id, i),
			Provider:    ProviderPlaces,
			Kind:        KindImage,
			DownloadURL: c.photoURL(ph.ref),
			PageURL:     fmt.Sprintf("https://www.google.com/maps/place/?q=place_id:%s", p.id),
			Width:       ph.width,
			Height:      ph.height,
			Attribution: fmt.Sprintf("Photo of %s via Google Places", p.name),
			Tags:        splitTags(p.name),
			PlaceRating: p.rating,
			PlaceTypes:  p.types,
		})
	}
	return out
}

func (c *PlacesClient) photoURL(ref string) string {
	return fmt.Sprintf("%s/maps/api/place/photo?maxwidth=1600&photo_reference=%s&key=%s",
		c.BaseURL, url.QueryEscape(ref), c.APIKey)
}

func (c *PlacesClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &ProviderError{Provider: ProviderPlaces, Cause: err}
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: ProviderPlaces, Cause: err}
	}
	defer resp.Body.Close()

	observeRateHeaders(c.gov, ProviderPlaces, resp)
	if err := checkResponse(ProviderPlaces, resp); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}
