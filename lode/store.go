package lode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/justapithecus/lode/lode"
	lodes3 "github.com/justapithecus/lode/lode/s3"
)

// Backend names a store implementation.
type Backend string

// Supported backends.
const (
	BackendFS     Backend = "fs"
	BackendS3     Backend = "s3"
	BackendMemory Backend = "memory"
)

// ParseBackend parses a backend name. Empty means BackendFS.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(s) {
	case "", "fs":
		return BackendFS, nil
	case "s3":
		return BackendS3, nil
	case "memory":
		return BackendMemory, nil
	default:
		return "", fmt.Errorf("invalid storage backend: %q (must be fs or s3)", s)
	}
}

// StoreConfig selects and configures a store backend.
type StoreConfig struct {
	// Backend is fs, s3 or memory.
	Backend Backend
	// Path is the root directory (fs) or "bucket/prefix" (s3).
	Path string
	// Region is the AWS region (s3, optional).
	Region string
	// Endpoint is a custom S3-compatible endpoint (s3, optional).
	Endpoint string
	// UsePathStyle forces path-style S3 addressing (s3, optional).
	UsePathStyle bool
}

// S3Config holds configuration for the S3 backend.
type S3Config struct {
	// Bucket is the S3 bucket name (required).
	Bucket string
	// Prefix is the key prefix within the bucket (optional).
	Prefix string
	// Region is the AWS region (optional, uses default chain if empty).
	Region string
	// Endpoint is a custom S3 endpoint URL for S3-compatible providers
	// (e.g. Cloudflare R2, MinIO). Empty uses the default AWS endpoint.
	Endpoint string
	// UsePathStyle forces path-style addressing (bucket in path, not subdomain).
	UsePathStyle bool
}

// Validate checks that required S3 configuration is present.
func (c *S3Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("S3 bucket is required")
	}
	return nil
}

// ParseS3Path parses a path in format "bucket/prefix" or "bucket".
func ParseS3Path(path string) (bucket, prefix string) {
	parts := strings.SplitN(strings.TrimPrefix(path, "s3://"), "/", 2)
	bucket = parts[0]
	if len(parts) > 1 {
		prefix = strings.Trim(parts[1], "/")
	}
	return bucket, prefix
}

// NewStoreFactory returns a lazily evaluated factory for cfg.
// The fs root is created on first use.
func NewStoreFactory(ctx context.Context, cfg StoreConfig) (lode.StoreFactory, error) {
	switch cfg.Backend {
	case BackendFS, "":
		if cfg.Path == "" {
			return nil, errors.New("fs backend requires a path")
		}
		root := cfg.Path
		fsFactory := lode.NewFSFactory(root)
		return func() (lode.Store, error) {
			if err := os.MkdirAll(root, 0o755); err != nil {
				return nil, err
			}
			return fsFactory()
		}, nil
	case BackendS3:
		bucket, prefix := ParseS3Path(cfg.Path)
		return NewS3StoreFactory(ctx, S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       cfg.Region,
			Endpoint:     cfg.Endpoint,
			UsePathStyle: cfg.UsePathStyle,
		})
	case BackendMemory:
		return lode.NewMemoryFactory(), nil
	default:
		return nil, fmt.Errorf("invalid storage backend: %q", cfg.Backend)
	}
}

// OpenStore builds a store for cfg. Failures are *StorageError with op "init".
func OpenStore(ctx context.Context, cfg StoreConfig) (lode.Store, error) {
	factory, err := NewStoreFactory(ctx, cfg)
	if err != nil {
		return nil, WrapInitError(err, cfg.Path)
	}
	store, err := factory()
	if err != nil {
		return nil, WrapInitError(err, cfg.Path)
	}
	return store, nil
}

// NewS3StoreFactory creates an S3-backed store factory.
// Uses AWS SDK default credential chain (env vars, shared config, IAM role).
func NewS3StoreFactory(ctx context.Context, s3cfg S3Config) (lode.StoreFactory, error) {
	if err := s3cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []func(*config.LoadOptions) error
	if s3cfg.Region != "" {
		opts = append(opts, config.WithRegion(s3cfg.Region))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if s3cfg.Endpoint != "" {
		endpoint := s3cfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	if s3cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	s3Client := s3.NewFromConfig(awsConfig, s3Opts...)

	return func() (lode.Store, error) {
		return lodes3.New(s3Client, lodes3.Config{
			Bucket: s3cfg.Bucket,
			Prefix: s3cfg.Prefix,
		})
	}, nil
}
