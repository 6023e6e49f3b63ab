package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Config holds S3/MinIO configuration
type S3Config struct {
	Endpoint        string // e.g., "http://localhost:9000" for MinIO
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	PublicURL       string // base URL objects are reachable at
}

// S3Storage writes automation exports to S3-compatible storage
type S3Storage struct {
	client    *s3.Client
	bucket    string
	publicURL string
	now       func() time.Time
}

// NewS3Storage creates a new S3 storage client
func NewS3Storage(cfg S3Config) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is not configured")
	}

	client := s3.New(s3.Options{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(cfg.Endpoint),
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
		UsePathStyle: true, // Required for MinIO
	})

	return &S3Storage{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		now:       time.Now,
	}, nil
}

// Object describes a stored export
type Object struct {
	Key        string
	URL        string
	Size       int64
	UploadedAt time.Time
}

// PutJSON stores a JSON document under prefix and returns where it landed.
// Keys look like <prefix>/2006/01/02/<uuid>.json.
func (s *S3Storage) PutJSON(ctx context.Context, prefix string, data []byte) (*Object, error) {
	now := s.now()
	key := objectKey(prefix, now, uuid.New())

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return nil, fmt.Errorf("uploading to s3: %w", err)
	}

	return &Object{
		Key:        key,
		URL:        s.publicURL + "/" + key,
		Size:       int64(len(data)),
		UploadedAt: now,
	}, nil
}

func objectKey(prefix string, at time.Time, id uuid.UUID) string {
	date := at.UTC().Format("2006/01/02")
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return fmt.Sprintf("%s/%s.json", date, id)
	}
	return fmt.Sprintf("%s/%s/%s.json", prefix, date, id)
}
