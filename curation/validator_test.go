package curation

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// fakeJPEG returns a payload with a valid JPEG magic number padded to
// the requested size, with a marker byte so payloads differ.
func fakeJPEG(size int, marker byte) []byte {
	data := make([]byte, size)
	copy(data, []byte{0xFF, 0xD8, 0xFF, 0xE0})
	if size > 4 {
		data[4] = marker
	}
	return data
}

func testValidator() *AcquisitionValidator {
	v := NewAcquisitionValidator()
	v.MinBytes = 64
	return v
}

func scoredFor(downloadURL, pageURL string) ScoredCandidate {
	return ScoredCandidate{
		MediaCandidate: MediaCandidate{
			ID:          "cand",
			Provider:    ProviderPexels,
			Kind:        KindImage,
			DownloadURL: downloadURL,
			PageURL:     pageURL,
		},
	}
}

func TestAcquireAcceptsValidImage(t *testing.T) {
	body := fakeJPEG(4096, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer ts.Close()

	dedup := NewDedupState()
	asset, err := testValidator().Acquire(context.Background(), scoredFor(ts.URL+"/a.jpg", ts.URL+"/page"), dedup)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if asset.Kind != KindImage || asset.ContentHash == "" || len(asset.Bytes) != len(body) {
		t.Fatalf("unexpected asset: kind=%s hash=%q len=%d", asset.Kind, asset.ContentHash, len(asset.Bytes))
	}
	if asset.Synthetic {
		t.Error("validated asset marked synthetic")
	}
	if !dedup.HasURL(ts.URL + "/a.jpg") {
		t.Error("download URL not committed to dedup state")
	}
}

func TestAcquireRejectsHTMLErrorPage(t *testing.T) {
	html := bytes.Repeat([]byte("<html><body>service unavailable</body></html>\n"), 20)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 200 with an HTML body, the classic provider failure mode.
		w.Header().Set("Content-Type", "text/html")
		w.Write(html)
	}))
	defer ts.Close()

	dedup := NewDedupState()
	_, err := testValidator().Acquire(context.Background(), scoredFor(ts.URL+"/img", ts.URL+"/p"), dedup)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for HTML body, got %v", err)
	}
	if dedup.HasURL(ts.URL + "/img") {
		t.Error("rejected download poisoned the dedup state")
	}
}

func TestAcquireRejectsUndersizedPayload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(fakeJPEG(16, 1))
	}))
	defer ts.Close()

	_, err := testValidator().Acquire(context.Background(), scoredFor(ts.URL+"/tiny", ""), NewDedupState())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for tiny payload, got %v", err)
	}
}

func TestAcquireRejectsDuplicateBytes(t *testing.T) {
	body := fakeJPEG(4096, 7)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Same bytes served from every path: different URLs, identical
		// content.
		w.Write(body)
	}))
	defer ts.Close()

	dedup := NewDedupState()
	v := testValidator()

	if _, err := v.Acquire(context.Background(), scoredFor(ts.URL+"/one", ts.URL+"/p1"), dedup); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	_, err := v.Acquire(context.Background(), scoredFor(ts.URL+"/two", ts.URL+"/p2"), dedup)
	if !errors.Is(err, ErrDuplicateContent) {
		t.Fatalf("expected ErrDuplicateContent for identical bytes, got %v", err)
	}

	hashes, _ := dedup.Counts()
	if hashes != 1 {
		t.Errorf("expected 1 committed hash, got %d", hashes)
	}
}

func TestAcquireRejectsErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := testValidator().Acquire(context.Background(), scoredFor(ts.URL+"/x", ""), NewDedupState())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for 404, got %v", err)
	}
}

func TestSniffMediaKind(t *testing.T) {
	mp4 := make([]byte, 16)
	copy(mp4[4:], []byte("ftyp"))

	cases := []struct {
		name string
		data []byte
		want MediaKind
		ok   bool
	}{
		{"jpeg", fakeJPEG(16, 0), KindImage, true},
		{"png", append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 8)...), KindImage, true},
		{"mp4", mp4, KindVideo, true},
		{"webm", append([]byte{0x1A, 0x45, 0xDF, 0xA3}, make([]byte, 12)...), KindVideo, true},
		{"html", []byte("<html><body>oops</body></html>"), "", false},
		{"short", []byte{0xFF, 0xD8}, "", false},
	}
	for _, tc := range cases {
		kind, ok := sniffMediaKind(tc.data)
		if ok != tc.ok || kind != tc.want {
			t.Errorf("%s: sniff = (%q, %v), want (%q, %v)", tc.name, kind, ok, tc.want, tc.ok)
		}
	}
}
