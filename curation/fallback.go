package curation

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Fallback strategy names, recorded on every synthetic asset so
// downstream stages can measure the real-vs-synthetic ratio.
const (
	StrategyThemedQuery      = "themed_query"
	StrategyRandomImage      = "random_image"
	StrategyLocalPlaceholder = "generated_placeholder"
)

// roleThemes append a mood term to the fallback photo query based on
// the scene's purpose.
var roleThemes = map[string]string{
	"conclusion": "success",
	"tips":       "ideas",
	"warning":    "caution",
	"hook":       "abstract",
	"intro":      "abstract",
}

// FallbackGenerator produces a clearly flagged synthetic asset when no
// provider yields valid unique content. It never returns an error: the
// final strategy renders a placeholder locally without any I/O, so the
// pipeline always has something to proceed with.
type FallbackGenerator struct {
	HTTP          *http.Client
	PhotoBaseURL  string // keyword-driven generic photo service
	RandomBaseURL string // random stock image service
}

func NewFallbackGenerator() *FallbackGenerator {
	return &FallbackGenerator{
		HTTP:          &http.Client{Timeout: downloadTimeout},
		PhotoBaseURL:  "https://loremflickr.com",
		RandomBaseURL: "https://picsum.photos",
	}
}

// Generate tries a themed photo query, then a random stock image, then
// a locally rendered placeholder. Every result is Synthetic and tagged
// with the strategy that produced it.
func (f *FallbackGenerator) Generate(ctx context.Context, keyword string, sceneCtx SceneContext, attempt int) *MediaAsset {
	theme := roleThemes[strings.ToLower(sceneCtx.Purpose)]
	if theme == "" {
		theme = "background"
	}

	if asset := f.fetchImage(ctx, f.themedURL(keyword, theme), StrategyThemedQuery); asset != nil {
		return asset
	}

	randomURL := fmt.Sprintf("%s/%d/%d?random=%d", f.RandomBaseURL, minMediaWidth, minMediaHeight, attempt)
	if asset := f.fetchImage(ctx, randomURL, StrategyRandomImage); asset != nil {
		return asset
	}

	log.Printf("Fallback: all remote strategies failed for %q, generating local placeholder", keyword)
	return f.placeholder(keyword)
}

func (f *FallbackGenerator) themedURL(keyword, theme string) string {
	tags := url.PathEscape(strings.Join(strings.Fields(keyword), ","))
	if tags == "" {
		tags = theme
	} else {
		tags = tags + "," + theme
	}
	return fmt.Sprintf("%s/%d/%d/%s", f.PhotoBaseURL, minMediaWidth, minMediaHeight, tags)
}

func (f *FallbackGenerator) fetchImage(ctx context.Context, u, strategy string) *MediaAsset {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil
	}
	resp, err := f.HTTP.Do(req)
	if err != nil {
		log.Printf("Fallback strategy %s failed: %v", strategy, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Fallback strategy %s failed: status %d", strategy, resp.StatusCode)
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes))
	if err != nil {
		return nil
	}
	if _, ok := sniffMediaKind(data); !ok {
		return nil
	}

	sum := sha256.Sum256(data)
	return &MediaAsset{
		Bytes:            data,
		Kind:             KindImage,
		Attribution:      "Synthetic fallback image",
		ContentHash:      hex.EncodeToString(sum[:]),
		Synthetic:        true,
		FallbackStrategy: strategy,
	}
}

// placeholder renders a solid-color PNG derived from the keyword. Pure
// computation, cannot fail on I/O.
func (f *FallbackGenerator) placeholder(keyword string) *MediaAsset {
	h := fnv.New32a()
	h.Write([]byte(keyword))
	h.Write([]byte(time.Now().Format(time.RFC3339Nano)))
	seed := h.Sum32()

	img := image.NewRGBA(image.Rect(0, 0, minMediaWidth, minMediaHeight))
	fill := color.RGBA{
		R: uint8(40 + seed%120),
		G: uint8(40 + (seed>>8)%120),
		B: uint8(60 + (seed>>16)%120),
		A: 255,
	}
	for y := 0; y < minMediaHeight; y++ {
		for x := 0; x < minMediaWidth; x++ {
			img.SetRGBA(x, y, fill)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		// Encoding an in-memory RGBA cannot realistically fail; keep a
		// non-empty buffer regardless so callers always get bytes.
		buf.Write([]byte{0x89, 'P', 'N', 'G'})
	}

	sum := sha256.Sum256(buf.Bytes())
	return &MediaAsset{
		Bytes:            buf.Bytes(),
		Kind:             KindImage,
		Attribution:      "Generated placeholder",
		ContentHash:      hex.EncodeToString(sum[:]),
		Synthetic:        true,
		FallbackStrategy: StrategyLocalPlaceholder,
	}
}
