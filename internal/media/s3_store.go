package media

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// objectPutter is the subset of the S3 client used by s3Store.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// s3Store implements Store on an S3 bucket.
type s3Store struct {
	client        objectPutter
	bucket        string
	region        string
	prefix        string
	publicBaseURL string
	logger        zerolog.Logger
}

// S3Options describes the bucket photos are written to.
type S3Options struct {
	Bucket        string
	Region        string
	Prefix        string
	PublicBaseURL string
}

// NewS3Store creates a new S3-backed store using the default AWS credential chain.
func NewS3Store(ctx context.Context, opts S3Options, logger zerolog.Logger) (Store, error) {
	logger = logger.With().Str("component", "s3-media-store").Logger()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(opts.Region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", opts.Bucket).
		Str("region", opts.Region).
		Msg("S3 media store initialised")

	return newS3Store(s3.NewFromConfig(cfg), opts, logger), nil
}

func newS3Store(client objectPutter, opts S3Options, logger zerolog.Logger) *s3Store {
	return &s3Store{
		client:        client,
		bucket:        opts.Bucket,
		region:        opts.Region,
		prefix:        opts.Prefix,
		publicBaseURL: strings.TrimRight(opts.PublicBaseURL, "/"),
		logger:        logger,
	}
}

// Put uploads body to the bucket under the configured prefix.
func (s *s3Store) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	objectKey := s.prefix + key

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", objectKey).
			Msg("failed to put object to S3")
		return "", fmt.Errorf("failed to put object to S3 (bucket=%s, key=%s): %w", s.bucket, objectKey, err)
	}

	s.logger.Info().
		Str("bucket", s.bucket).
		Str("key", objectKey).
		Msg("photo uploaded to S3")

	return s.url(objectKey), nil
}

func (s *s3Store) url(objectKey string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + objectKey
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, objectKey)
}
