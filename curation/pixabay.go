package curation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// PixabayClient adapts the Pixabay image and video search APIs.
type PixabayClient struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
	gov     *RateLimitGovernor
}

func NewPixabayClient(apiKey string, gov *RateLimitGovernor) *PixabayClient {
	return &PixabayClient{
		APIKey:  apiKey,
		BaseURL: "https://pixabay.com",
		HTTP:    &http.Client{Timeout: stockSearchTimeout},
		gov:     gov,
	}
}

func (c *PixabayClient) Name() Provider { return ProviderPixabay }

type pixabayHit struct {
	ID            int    `json:"id"`
	PageURL       string `json:"pageURL"`
	Tags          string `json:"tags"`
	ImageWidth    int    `json:"imageWidth"`
	ImageHeight   int    `json:"imageHeight"`
	LargeImageURL string `json:"largeImageURL"`
	FullHDURL     string `json:"fullHDURL"`
	User          string `json:"user"`
}

type pixabayVideoHit struct {
	ID       int     `json:"id"`
	PageURL  string  `json:"pageURL"`
	Tags     string  `json:"tags"`
	Duration float64 `json:"duration"`
	User     string  `json:"user"`
	Videos   map[string]struct {
		URL    string `json:"url"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"videos"`
}

func (c *PixabayClient) Search(ctx context.Context, query string, kind MediaKind, limit int) ([]MediaCandidate, error) {
	if err := c.gov.Reserve(ctx, ProviderPixabay); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("key", c.APIKey)
	q.Set("q", query)
	q.Set("per_page", fmt.Sprint(limit))
	q.Set("safesearch", "true")

	var endpoint string
	switch kind {
	case KindVideo:
		endpoint = fmt.Sprintf("%s/api/videos/?%s", c.BaseURL, q.Encode())
	default:
		q.Set("image_type", "photo")
		q.Set("min_width", fmt.Sprint(minMediaWidth))
		q.Set("min_height", fmt.Sprint(minMediaHeight))
		endpoint = fmt.Sprintf("%s/api/?%s", c.BaseURL, q.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &ProviderError{Provider: ProviderPixabay, Cause: err}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: ProviderPixabay, Cause: err}
	}
	defer resp.Body.Close()

	observeRateHeaders(c.gov, ProviderPixabay, resp)
	if err := checkResponse(ProviderPixabay, resp); err != nil {
		return nil, err
	}

	if kind == KindVideo {
		return c.decodeVideos(resp)
	}
	return c.decodeImages(resp)
}

func (c *PixabayClient) decodeImages(resp *http.Response) ([]MediaCandidate, error) {
	var body struct {
		Hits []pixabayHit `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &ProviderError{Provider: ProviderPixabay, Cause: err}
	}

	var out []MediaCandidate
	for _, h := range body.Hits {
		if !meetsResolutionFloor(h.ImageWidth, h.ImageHeight) {
			continue
		}
		download := h.FullHDURL
		if download == "" {
			download = h.LargeImageURL
		}
		out = append(out, MediaCandidate{
			ID:          fmt.Sprintf("pixabay-image-%d", h.ID),
			Provider:    ProviderPixabay,
			Kind:        KindImage,
			DownloadURL: download,
			PageURL:     h.PageURL,
			Width:       h.ImageWidth,
			Height:      h.ImageHeight,
			Attribution: fmt.Sprintf("Image by %s on Pixabay", h.User),
			Tags:        splitTags(h.Tags),
		})
	}
	return out, nil
}

func (c *PixabayClient) decodeVideos(resp *http.Response) ([]MediaCandidate, error) {
	var body struct {
		Hits []pixabayVideoHit `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &ProviderError{Provider: ProviderPixabay, Cause: err}
	}

	var out []MediaCandidate
	for _, h := range body.Hits {
		// Prefer the smallest named variant that meets the floor.
		var chosenURL string
		var chosenW, chosenH int
		for _, name := range []string{"medium", "large"} {
			v, ok := h.Videos[name]
			if ok && meetsResolutionFloor(v.Width, v.Height) {
				chosenURL, chosenW, chosenH = v.URL, v.Width, v.Height
				break
			}
		}
		if chosenURL == "" {
			continue
		}
		out = append(out, MediaCandidate{
			ID:              fmt.Sprintf("pixabay-video-%d", h.ID),
			Provider:        ProviderPixabay,
			Kind:            KindVideo,
			DownloadURL:     chosenURL,
			PageURL:         h.PageURL,
			Width:           chosenW,
			Height:          chosenH,
			DurationSeconds: h.Duration,
			Attribution:     fmt.Sprintf("Video by %s on Pixabay", h.User),
			Tags:            splitTags(h.Tags),
		})
	}
	return out, nil
}
