package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrBadS3Ref is returned when an s3:// reference cannot be parsed.
var ErrBadS3Ref = errors.New("storage: malformed s3 reference")

// S3Config holds the configuration for S3-backed video fetching.
type S3Config struct {
	Region          string
	Endpoint        string // Optional: for custom S3-compatible endpoints
	AccessKeyID     string // Optional: AWS access key ID
	SecretAccessKey string // Optional: AWS secret access key
}

// S3Store wraps LocalStore and adds S3 download capability so that
// s3://bucket/key video references resolve to local temporary copies.
type S3Store struct {
	*LocalStore
	client *s3.Client
}

// NewS3Store creates a new S3Store instance.
// The tempDir parameter specifies where downloaded videos and other
// temporary files are stored.
func NewS3Store(tempDir string, cfg S3Config) (*S3Store, error) {
	local, err := NewLocalStore(tempDir)
	if err != nil {
		return nil, err
	}

	var configOpts []func(*config.LoadOptions) error
	configOpts = append(configOpts, config.WithRegion(cfg.Region))

	// Use static credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), configOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Store{
		LocalStore: local,
		client:     s3.NewFromConfig(awsCfg, clientOpts...),
	}, nil
}

// FetchVideo downloads s3://bucket/key references into the temp directory
// and delegates local paths to LocalStore.
func (s *S3Store) FetchVideo(ctx context.Context, ref string) (string, bool, error) {
	if !IsS3Ref(ref) {
		return s.LocalStore.FetchVideo(ctx, ref)
	}

	bucket, key, err := parseS3Ref(ref)
	if err != nil {
		return "", false, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", false, fmt.Errorf("download from S3: %w", err)
	}
	defer func() { _ = out.Body.Close() }()

	localPath, err := s.SaveTemp(ctx, path.Base(key), out.Body)
	if err != nil {
		return "", false, err
	}

	return localPath, true, nil
}

// parseS3Ref splits s3://bucket/key into bucket and key.
func parseS3Ref(ref string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(ref, "s3://")
	bucket, key, found := strings.Cut(trimmed, "/")
	if !found || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %s", ErrBadS3Ref, ref)
	}
	return bucket, key, nil
}

// Verify interface implementation at compile time.
var _ Store = (*S3Store)(nil)
