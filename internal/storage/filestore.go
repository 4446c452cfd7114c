package storage

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"lukechampine.com/blake3"

	"github.com/audiolens/backend/internal/model/audio"
)

// FileStore keeps uploaded audio on local disk. Files are content-addressed
// by BLAKE3 hash, so re-uploading the same recording lands on the same path
// and nothing is ever overwritten with different bytes.
type FileStore struct {
	dir string
}

// NewFileStore ensures the upload directory exists.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save persists one upload and returns its reference. The original filename
// is kept for display; the stored name is the content hash plus extension.
func (s *FileStore) Save(filename string, r io.Reader) (audio.Reference, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return audio.Reference{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return audio.Reference{}, fmt.Errorf("empty upload")
	}

	sum := blake3.Sum256(data)
	ext := strings.ToLower(filepath.Ext(filename))
	stored := hex.EncodeToString(sum[:]) + ext
	path := filepath.Join(s.dir, stored)

	if _, err := os.Stat(path); err != nil {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return audio.Reference{}, fmt.Errorf("write upload: %w", err)
		}
	}

	return audio.Reference{Filename: filename, Path: path}, nil
}
