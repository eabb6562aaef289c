package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/eventual-app/eventual/pkg/observability/logger"
	"github.com/google/uuid"
)

// Config defines the object storage backing the media library.
type Config struct {
	Bucket           string
	Region           string
	Endpoint         string
	AccessKeyID      string
	SecretAccessKey  string
	KeyPrefix        string
	PublicBaseURL    string
	UsePathStyle     bool
	OperationTimeout time.Duration
}

type s3API interface {
	HeadBucket(ctx context.Context, params *awss3.HeadBucketInput, optFns ...func(*awss3.Options)) (*awss3.HeadBucketOutput, error)
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *awss3.DeleteObjectInput, optFns ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error)
}

// Store uploads media assets to an S3-compatible bucket and hands back
// publicly reachable URLs for the stored objects.
type Store struct {
	client  s3API
	logger  logger.Logger
	config  Config
	breaker *hostBreaker

	mu     sync.RWMutex
	closed bool
}

// NewStore creates a media store and verifies bucket accessibility.
func NewStore(cfg Config, log logger.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("media bucket is required")
	}
	if strings.TrimSpace(cfg.Region) == "" {
		return nil, errors.New("media region is required")
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = 10 * time.Second
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	clientOptions := make([]func(*awss3.Options), 0, 2)
	if cfg.Endpoint != "" {
		clientOptions = append(clientOptions, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.UsePathStyle {
		clientOptions = append(clientOptions, func(o *awss3.Options) {
			o.UsePathStyle = true
		})
	}

	store := &Store{
		client:  awss3.NewFromConfig(awsCfg, clientOptions...),
		logger:  log,
		config:  cfg,
		breaker: newHostBreaker(5, 30*time.Second),
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.OperationTimeout)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		return nil, err
	}

	log.Info("media store initialized", "bucket", cfg.Bucket, "region", cfg.Region, "endpoint", cfg.Endpoint)
	return store, nil
}

// Ping verifies that the configured bucket is accessible.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	_, err := s.client.HeadBucket(ctx, &awss3.HeadBucketInput{
		Bucket: aws.String(s.config.Bucket),
	})
	if err != nil {
		return fmt.Errorf("media store ping failed: %w", err)
	}
	return nil
}

// Upload stores one asset under a random key that keeps the original file
// extension, and returns the public URL plus the key needed to delete it.
func (s *Store) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, string, error) {
	if err := s.ensureOpen(); err != nil {
		return "", "", err
	}
	if body == nil {
		return "", "", errors.New("asset body is required")
	}

	key := s.objectKey(filename)

	opCtx, cancel := context.WithTimeout(ctx, s.config.OperationTimeout)
	defer cancel()

	input := &awss3.PutObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if strings.TrimSpace(contentType) != "" {
		input.ContentType = aws.String(contentType)
	}

	err := s.breaker.do(func() error {
		_, putErr := s.client.PutObject(opCtx, input)
		return putErr
	})
	if err != nil {
		if errors.Is(err, ErrHostUnavailable) {
			return "", "", err
		}
		return "", "", fmt.Errorf("failed to upload asset %q: %w", key, err)
	}
	return s.publicURL(key), key, nil
}

// Delete removes a stored asset by the key returned from Upload.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("asset key is required")
	}

	opCtx, cancel := context.WithTimeout(ctx, s.config.OperationTimeout)
	defer cancel()

	if _, err := s.client.DeleteObject(opCtx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("failed to delete asset %q: %w", key, err)
	}
	return nil
}

// HealthCheck verifies the store can reach the bucket within a short timeout.
func (s *Store) HealthCheck(ctx context.Context) error {
	hcCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.Ping(hcCtx); err != nil {
		s.logger.Error("media store health check failed", "error", err)
		return fmt.Errorf("media store health check failed: %w", err)
	}
	return nil
}

// Close marks the store as closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) objectKey(filename string) string {
	key := uuid.NewString() + strings.ToLower(path.Ext(filename))
	if prefix := strings.Trim(s.config.KeyPrefix, "/"); prefix != "" {
		return prefix + "/" + key
	}
	return key
}

func (s *Store) publicURL(key string) string {
	base := strings.TrimRight(s.config.PublicBaseURL, "/")
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.config.Bucket, s.config.Region)
	}
	return base + "/" + key
}

func (s *Store) ensureOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.New("media store is closed")
	}
	return nil
}
