// Package gcs provides a record store backed by Google Cloud Storage.
package gcs

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/JakeFAU/fact-poller/internal/fact"
)

const contentType = "application/json"

// Config captures the parameters required to write records to GCS.
type Config struct {
	Bucket string
	Prefix string
}

type writerFunc func(ctx context.Context, object string) io.WriteCloser

// Store writes one object per record to a configured GCS bucket.
type Store struct {
	newWriter writerFunc
	closeFn   func() error
	bucket    string
	prefix    string
	ids       fact.IDGenerator
}

// Open creates a GCS client using Application Default Credentials and
// verifies the bucket is reachable.
func Open(ctx context.Context, cfg Config, ids fact.IDGenerator) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	if _, err := client.Bucket(cfg.Bucket).Attrs(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("get GCS bucket %q attributes: %w", cfg.Bucket, err)
	}
	s, err := New(client, cfg, ids)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	s.closeFn = client.Close
	return s, nil
}

// New creates a GCS-backed store from an existing client.
func New(client *storage.Client, cfg Config, ids fact.IDGenerator) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	return newWithWriter(func(ctx context.Context, object string) io.WriteCloser {
		w := client.Bucket(cfg.Bucket).Object(object).NewWriter(ctx)
		w.ContentType = contentType
		return w
	}, cfg, ids)
}

func newWithWriter(w writerFunc, cfg Config, ids fact.IDGenerator) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	if ids == nil {
		return nil, fmt.Errorf("id generator is required")
	}
	return &Store{
		newWriter: w,
		bucket:    cfg.Bucket,
		prefix:    strings.Trim(cfg.Prefix, "/"),
		ids:       ids,
	}, nil
}

// Name identifies the provider.
func (s *Store) Name() string {
	return "gcs"
}

// Save uploads f as <prefix>/<key>.json and returns the key.
func (s *Store) Save(ctx context.Context, f fact.Fact) (string, error) {
	key, err := s.ids.NewID()
	if err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	payload, err := fact.Encode(f)
	if err != nil {
		return "", err
	}

	object := s.ObjectName(key)
	writer := s.newWriter(ctx, object)
	if _, err := writer.Write(payload); err != nil {
		if closeErr := writer.Close(); closeErr != nil {
			return "", fmt.Errorf("write object %s: %w (close writer: %v)", object, err, closeErr)
		}
		return "", fmt.Errorf("write object %s: %w", object, err)
	}
	// Close finalizes the upload; the object does not exist until it succeeds.
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close writer for %s: %w", object, err)
	}
	return key, nil
}

// ObjectName returns the object path a key is stored under.
func (s *Store) ObjectName(key string) string {
	if s.prefix == "" {
		return key + ".json"
	}
	return path.Join(s.prefix, key+".json")
}

// URI returns the gs:// location of a key.
func (s *Store) URI(key string) string {
	return fmt.Sprintf("gs://%s/%s", s.bucket, s.ObjectName(key))
}

// Close releases the client when the store owns it.
func (s *Store) Close() error {
	if s.closeFn == nil {
		return nil
	}
	if err := s.closeFn(); err != nil {
		return fmt.Errorf("close GCS client: %w", err)
	}
	return nil
}
