package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// BlobStore persists raw media bytes under hierarchical keys. The disk
// implementation below is the default; an object-store implementation
// only has to honor the same key layout.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
}

// AssetKey builds the canonical storage key for one scene asset:
// project/{videoID}/scene-{n}/{kind}/{index}.{ext}
func AssetKey(videoID uint, sceneNumber int, kind string, index int, data []byte) string {
	return fmt.Sprintf("project/%d/scene-%d/%s/%d.%s", videoID, sceneNumber, kind, index, extFor(data, kind))
}

// extFor picks a file extension from the payload's magic number, falling
// back to a sensible default for the media kind.
func extFor(data []byte, kind string) string {
	switch {
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}):
		return "png"
	case len(data) >= 3 && bytes.Equal(data[:3], []byte{0xFF, 0xD8, 0xFF}):
		return "jpg"
	case len(data) >= 6 && (bytes.Equal(data[:6], []byte("GIF87a")) || bytes.Equal(data[:6], []byte("GIF89a"))):
		return "gif"
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "webp"
	case len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")):
		return "mp4"
	case len(data) >= 4 && bytes.Equal(data[:4], []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return "webm"
	case kind == "video":
		return "mp4"
	default:
		return "jpg"
	}
}

// LocalBlobStore writes blobs to a directory tree rooted at Root.
type LocalBlobStore struct {
	Root string
}

func NewLocalBlobStore(root string) *LocalBlobStore {
	return &LocalBlobStore{Root: root}
}

// Put writes the blob and returns the absolute path it landed at.
func (s *LocalBlobStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(s.Root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create blob dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write blob %s: %w", key, err)
	}
	return path, nil
}
