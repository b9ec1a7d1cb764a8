package curation

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// Payloads below this are almost never genuine media; error pages
	// and empty responses fall well under it.
	minAssetBytes = 10 * 1024

	// Hard cap so a mislabeled stream can't exhaust memory.
	maxAssetBytes = 64 << 20

	downloadTimeout = 20 * time.Second
)

// AcquisitionValidator is the single gate all real content passes
// through: download, size check, format sniff, content-hash dedup, and
// finally the atomic commit into the project's used sets.
type AcquisitionValidator struct {
	HTTP     *http.Client
	MinBytes int
}

func NewAcquisitionValidator() *AcquisitionValidator {
	return &AcquisitionValidator{
		HTTP:     &http.Client{Timeout: downloadTimeout},
		MinBytes: minAssetBytes,
	}
}

// Acquire downloads the candidate's bytes, validates them, and commits
// the content hash and URLs into dedup state on acceptance. Returns
// ErrDuplicateContent (wrapped) when the bytes were already used, or a
// ValidationError for rejected payloads.
func (v *AcquisitionValidator) Acquire(ctx context.Context, sc ScoredCandidate, dedup *DedupState) (*MediaAsset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sc.DownloadURL, nil)
	if err != nil {
		return nil, &ValidationError{URL: sc.DownloadURL, Reason: err.Error()}
	}

	resp, err := v.HTTP.Do(req)
	if err != nil {
		return nil, &ValidationError{URL: sc.DownloadURL, Reason: fmt.Sprintf("download failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ValidationError{URL: sc.DownloadURL, Reason: fmt.Sprintf("download status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes))
	if err != nil {
		return nil, &ValidationError{URL: sc.DownloadURL, Reason: fmt.Sprintf("read failed: %v", err)}
	}

	if len(data) < v.MinBytes {
		return nil, &ValidationError{URL: sc.DownloadURL, Reason: fmt.Sprintf("payload too small (%d bytes)", len(data))}
	}

	kind, ok := sniffMediaKind(data)
	if !ok {
		return nil, &ValidationError{URL: sc.DownloadURL, Reason: "unrecognized media format"}
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	if !dedup.Commit(hash, sc.PageURL, sc.DownloadURL) {
		return nil, fmt.Errorf("%s: %w", sc.DownloadURL, ErrDuplicateContent)
	}

	src := sc.MediaCandidate
	return &MediaAsset{
		Bytes:       data,
		Provider:    sc.Provider,
		Kind:        kind,
		Attribution: sc.Attribution,
		ContentHash: hash,
		Source:      &src,
	}, nil
}

// sniffMediaKind inspects header bytes against known image/video magic
// numbers. Anything else (e.g. an HTML error page served with 200) is
// rejected.
func sniffMediaKind(data []byte) (MediaKind, bool) {
	if len(data) < 12 {
		return "", false
	}
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}): // JPEG
		return KindImage, true
	case bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}): // PNG
		return KindImage, true
	case bytes.HasPrefix(data, []byte("GIF8")): // GIF
		return KindImage, true
	case bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")): // WebP
		return KindImage, true
	case bytes.Equal(data[4:8], []byte("ftyp")): // MP4/MOV family
		return KindVideo, true
	case bytes.HasPrefix(data, []byte{0x1A, 0x45, 0xDF, 0xA3}): // WebM/Matroska
		return KindVideo, true
	}
	return "", false
}
