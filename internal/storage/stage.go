package storage

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"time"
)

// Stage stores an uploaded file for an import run and returns its key
func Stage(ctx context.Context, s Storage, runID, kind, filename string, content []byte) (string, error) {
	key := BuildUploadKey(runID, kind, filename)
	meta := &Metadata{
		ContentType:  mime.TypeByExtension(filepath.Ext(filename)),
		OriginalName: filepath.Base(filename),
		RunID:        runID,
		Checksum:     ComputeChecksum(content),
		UploadedAt:   time.Now().UTC(),
	}
	if err := s.Put(ctx, key, content, meta); err != nil {
		return "", fmt.Errorf("failed to stage %s file: %w", kind, err)
	}
	return key, nil
}

// Load reads a staged file and its metadata. When the metadata carries a
// checksum the content must still match it.
func Load(ctx context.Context, s Storage, key string) ([]byte, *Metadata, error) {
	content, err := s.Get(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	info, err := s.GetInfo(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	meta := info.Metadata
	if meta == nil {
		meta = &Metadata{}
	}
	if meta.Checksum != "" && meta.Checksum != ComputeChecksum(content) {
		return nil, nil, fmt.Errorf("%w: %s", ErrChecksumMismatch, key)
	}
	return content, meta, nil
}

// Purge deletes every file staged for a run
func Purge(ctx context.Context, s Storage, runID string) error {
	keys, err := s.List(ctx, fmt.Sprintf("%s%s/", UploadPrefix, runID))
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
