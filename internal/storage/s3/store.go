// Package s3 provides a record store backed by Amazon S3 or an S3-compatible service.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/JakeFAU/fact-poller/internal/fact"
)

const contentType = "application/json"

// Config captures the bucket and connection settings for the S3 store.
// Empty credentials fall back to the default AWS credential chain.
type Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store writes one object per record to an S3 bucket.
type Store struct {
	client putObjectAPI
	bucket string
	prefix string
	ids    fact.IDGenerator
}

// Open loads AWS configuration and builds an S3 client for cfg.
func Open(ctx context.Context, cfg Config, ids fact.IDGenerator) (*Store, error) {
	opts := []func(*config.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return New(client, cfg, ids)
}

// New creates a store around an existing client.
func New(client putObjectAPI, cfg Config, ids fact.IDGenerator) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("s3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	if ids == nil {
		return nil, fmt.Errorf("id generator is required")
	}
	return &Store{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		ids:    ids,
	}, nil
}

// Name identifies the provider.
func (s *Store) Name() string {
	return "s3"
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
	object := s.ObjectKey(key)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(object),
		Body:          bytes.NewReader(payload),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(payload))),
		IfNoneMatch:   aws.String("*"),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", object, err)
	}
	return key, nil
}

// ObjectKey returns the object key a record key is stored under.
func (s *Store) ObjectKey(key string) string {
	if s.prefix == "" {
		return key + ".json"
	}
	return path.Join(s.prefix, key+".json")
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *Store) Close() error {
	return nil
}
