package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// ImageURLSigner resolves stored object keys into URLs a browser can fetch.
type ImageURLSigner interface {
	// SignURL returns a time-limited URL for the given object key.
	SignURL(ctx context.Context, key string) (string, error)
}

// s3ImageSigner implements ImageURLSigner with presigned S3 GET URLs.
type s3ImageSigner struct {
	presigner *s3.PresignClient
	bucket    string
	prefix    string
	expiry    time.Duration
	logger    zerolog.Logger
}

// NewS3ImageSigner creates a presigning client for product image URLs.
func NewS3ImageSigner(ctx context.Context, bucket, region, prefix string, expiry time.Duration, logger zerolog.Logger) (ImageURLSigner, error) {
	logger = logger.With().Str("component", "s3-image-signer").Logger()

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(cfg)

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Dur("expiry", expiry).
		Msg("S3 image signer initialised")

	return &s3ImageSigner{
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		prefix:    prefix,
		expiry:    expiry,
		logger:    logger,
	}, nil
}

// SignURL presigns a GET for the object under the configured prefix.
func (s *s3ImageSigner) SignURL(ctx context.Context, key string) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", key).
			Msg("failed to presign image URL")
		return "", fmt.Errorf("failed to presign image URL (bucket=%s, key=%s): %w", s.bucket, key, err)
	}

	return req.URL, nil
}

// passthroughSigner serves object keys as relative paths. Used when S3 is
// disabled, for local development behind a static file server.
type passthroughSigner struct {
	basePath string
}

// NewPassthroughSigner returns a signer that joins keys onto a static base
// path instead of presigning.
func NewPassthroughSigner(basePath string) ImageURLSigner {
	return &passthroughSigner{basePath: basePath}
}

func (s *passthroughSigner) SignURL(_ context.Context, key string) (string, error) {
	return s.basePath + "/" + key, nil
}
