package curation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// PexelsClient adapts the Pexels photo and video search APIs into the
// common candidate shape.
type PexelsClient struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
	gov     *RateLimitGovernor
}

func NewPexelsClient(apiKey string, gov *RateLimitGovernor) *PexelsClient {
	return &PexelsClient{
		APIKey:  apiKey,
		BaseURL: "https://api.pexels.com",
		HTTP:    &http.Client{Timeout: stockSearchTimeout},
		gov:     gov,
	}
}

func (c *PexelsClient) Name() Provider { return ProviderPexels }

type pexelsPhoto struct {
	ID           int    `json:"id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	URL          string `json:"url"`
	Photographer string `json:"photographer"`
	Alt          string `json:"alt"`
	Src          struct {
		Original string `json:"original"`
		Large2x  string `json:"large2x"`
		Large    string `json:"large"`
	} `json:"src"`
}

type pexelsVideoFile struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Link   string `json:"link"`
}

type pexelsVideo struct {
	ID       int     `json:"id"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	URL      string  `json:"url"`
	Duration float64 `json:"duration"`
	User     struct {
		Name string `json:"name"`
	} `json:"user"`
	VideoFiles []pexelsVideoFile `json:"video_files"`
}

func (c *PexelsClient) Search(ctx context.Context, query string, kind MediaKind, limit int) ([]MediaCandidate, error) {
	if err := c.gov.Reserve(ctx, ProviderPexels); err != nil {
		return nil, err
	}

	var endpoint string
	switch kind {
	case KindVideo:
		endpoint = fmt.Sprintf("%s/videos/search?query=%s&per_page=%d", c.BaseURL, url.QueryEscape(query), limit)
	default:
		endpoint = fmt.Sprintf("%s/v1/search?query=%s&per_page=%d", c.BaseURL, url.QueryEscape(query), limit)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &ProviderError{Provider: ProviderPexels, Cause: err}
	}
	req.Header.Set("Authorization", c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: ProviderPexels, Cause: err}
	}
	defer resp.Body.Close()

	observeRateHeaders(c.gov, ProviderPexels, resp)
	if err := checkResponse(ProviderPexels, resp); err != nil {
		return nil, err
	}

	if kind == KindVideo {
		return c.decodeVideos(resp)
	}
	return c.decodePhotos(resp)
}

func (c *PexelsClient) decodePhotos(resp *http.Response) ([]MediaCandidate, error) {
	var body struct {
		Photos []pexelsPhoto `json:"photos"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &ProviderError{Provider: ProviderPexels, Cause: err}
	}

	var out []MediaCandidate
	for _, p := range body.Photos {
		if !meetsResolutionFloor(p.Width, p.Height) {
			continue
		}
		download := p.Src.Large2x
		if download == "" {
			download = p.Src.Original
		}
		out = append(out, MediaCandidate{
			ID:          fmt.Sprintf("pexels-photo-%d", p.ID),
			Provider:    ProviderPexels,
			Kind:        KindImage,
			DownloadURL: download,
			PageURL:     p.URL,
			Width:       p.Width,
			Height:      p.Height,
			Attribution: fmt.Sprintf("Photo by %s on Pexels", p.Photographer),
			Tags:        splitTags(p.Alt),
		})
	}
	return out, nil
}

func (c *PexelsClient) decodeVideos(resp *http.Response) ([]MediaCandidate, error) {
	var body struct {
		Videos []pexelsVideo `json:"videos"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &ProviderError{Provider: ProviderPexels, Cause: err}
	}

	var out []MediaCandidate
	for _, v := range body.Videos {
		file, ok := bestPexelsFile(v.VideoFiles)
		if !ok {
			continue
		}
		out = append(out, MediaCandidate{
			ID:              fmt.Sprintf("pexels-video-%d", v.ID),
			Provider:        ProviderPexels,
			Kind:            KindVideo,
			DownloadURL:     file.Link,
			PageURL:         v.URL,
			Width:           file.Width,
			Height:          file.Height,
			DurationSeconds: v.Duration,
			Attribution:     fmt.Sprintf("Video by %s on Pexels", v.User.Name),
		})
	}
	return out, nil
}

// bestPexelsFile picks the smallest variant that still clears the
// resolution floor, to avoid downloading 4K masters for a short clip.
func bestPexelsFile(files []pexelsVideoFile) (pexelsVideoFile, bool) {
	var best pexelsVideoFile
	found := false
	for _, f := range files {
		if !meetsResolutionFloor(f.Width, f.Height) {
			continue
		}
		if !found || f.Width < best.Width {
			best = f
			found = true
		}
	}
	return best, found
}
