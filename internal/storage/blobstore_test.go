package storage

import (
	"context"
	"os"
	"testing"
)

func TestAssetKeyLayout(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}
	key := AssetKey(42, 3, "image", 1, jpeg)
	if key != "project/42/scene-3/image/1.jpg" {
		t.Errorf("key = %q", key)
	}

	mp4 := make([]byte, 16)
	copy(mp4[4:], []byte("ftyp"))
	key = AssetKey(42, 1, "video", 0, mp4)
	if key != "project/42/scene-1/video/0.mp4" {
		t.Errorf("key = %q", key)
	}

	// Unknown payload falls back to the kind's default extension.
	key = AssetKey(1, 1, "image", 0, []byte("??"))
	if key != "project/1/scene-1/image/0.jpg" {
		t.Errorf("key = %q", key)
	}
}

func TestLocalBlobStoreRoundTrip(t *testing.T) {
	store := NewLocalBlobStore(t.TempDir())

	data := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 1, 2, 3}
	key := AssetKey(7, 2, "image", 0, data)

	path, err := store.Put(context.Background(), key, data)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != string(data) {
		t.Error("stored bytes differ from input")
	}
}
