package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoArtifact is returned by Load when the artifact file does not exist.
var ErrNoArtifact = errors.New("model artifact not found")

// Save writes p to path atomically: a reader sees the old or the new artifact,
// never a partial one.
func Save(path string, p *Pipeline) error {
	if err := p.validate(); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	if err := enc.Encode(p); err != nil {
		tmp.Close()
		return fmt.Errorf("encode model: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Load reads and validates an artifact written by Save.
func Load(path string) (*Pipeline, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoArtifact, path)
	}
	if err != nil {
		return nil, err
	}
	var p Pipeline
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return &p, nil
}
