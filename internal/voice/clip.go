package voice

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ClipStore keeps uploaded voice clips so transcription jobs can read them back.
type ClipStore interface {
	Put(ctx context.Context, deviceID string, at time.Time, audio []byte) (string, error)
	URI(key string) string
}

// DirStore stores clips as files under a root directory.
type DirStore struct {
	root string
}

// NewDirStore creates a clip store rooted at dir.
func NewDirStore(dir string) *DirStore {
	return &DirStore{root: dir}
}

// ClipKey builds the storage key voice/{device}/{yyyymmdd_HHMMSS}_{uuid}.wav.
func ClipKey(deviceID string, at time.Time) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '.', 0:
			return '_'
		}
		return r
	}, deviceID)
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("voice/%s/%s_%s.wav", safe, at.Format("20060102_150405"), id)
}

// Put writes the clip and returns its key.
func (s *DirStore) Put(ctx context.Context, deviceID string, at time.Time, audio []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := ClipKey(deviceID, at)
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create clip directory: %w", err)
	}
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", fmt.Errorf("failed to write clip %s: %w", key, err)
	}
	return key, nil
}

// URI returns the media location handed to the transcription service.
func (s *DirStore) URI(key string) string {
	abs, err := filepath.Abs(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil {
		abs = filepath.Join(s.root, filepath.FromSlash(key))
	}
	return "file://" + filepath.ToSlash(abs)
}
