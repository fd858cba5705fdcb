// Package local implements a directory-backed record store: one JSON file per record.
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JakeFAU/fact-poller/internal/fact"
)

// Config captures the parameters for the local filesystem store.
type Config struct {
	// BaseDir is the root directory where records will be stored.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// Store writes records to the local filesystem.
type Store struct {
	baseDir string
	ids     fact.IDGenerator
}

// New opens (creating if needed) the base directory and verifies it is writable.
func New(cfg Config, ids fact.IDGenerator) (*Store, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	if ids == nil {
		return nil, fmt.Errorf("id generator is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat base directory: %w", err)
		}
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", mkErr)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	testFile := filepath.Join(cfg.BaseDir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("failed to clean up test file: %w", err)
	}

	return &Store{
		baseDir: cfg.BaseDir,
		ids:     ids,
	}, nil
}

// Name identifies the provider.
func (s *Store) Name() string {
	return "local"
}

// Save writes f to <base>/<key>.json and returns the generated key.
// The file appears atomically; a failed save leaves nothing behind.
func (s *Store) Save(ctx context.Context, f fact.Fact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context canceled: %w", err)
	}
	key, err := s.ids.NewID()
	if err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	payload, err := indentedRecord(f)
	if err != nil {
		return "", err
	}

	target := s.Path(key)
	if _, err := os.Stat(target); err == nil {
		return "", fmt.Errorf("record %s already exists", key)
	}
	tmp, err := os.CreateTemp(s.baseDir, ".record-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write record %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close record %s: %w", key, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("rename record %s: %w", key, err)
	}
	return key, nil
}

// Path returns the file a key is stored under.
func (s *Store) Path(key string) string {
	return filepath.Join(s.baseDir, key+".json")
}

// Close is a no-op; files are closed after every save.
func (s *Store) Close() error {
	return nil
}

func indentedRecord(f fact.Fact) ([]byte, error) {
	raw, err := fact.Encode(f)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("indent record: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
