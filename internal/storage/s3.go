package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// S3Config holds the parameters of an S3-compatible bucket (AWS S3 or MinIO)
type S3Config struct {
	Region string
	Bucket string
	// Endpoint enables a custom endpoint such as MinIO
	Endpoint  string
	PathStyle bool
	// AccessKeyID and SecretAccessKey are optional; the default credentials chain is used without them
	AccessKeyID     string
	SecretAccessKey string
}

// S3Storage implements Storage for a single S3 bucket. Keys map to object keys directly.
type S3Storage struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

// NewS3Storage creates an S3 storage from cfg
func NewS3Storage(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	logger.Info("S3 storage initialized",
		zap.String("bucket", cfg.Bucket),
		zap.String("region", region),
		zap.String("endpoint", cfg.Endpoint),
	)

	return &S3Storage{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

// Put uploads data as the object named key. The body is buffered so the
// request carries a content length.
func (s *S3Storage) Put(ctx context.Context, key string, contentType string, data io.Reader) (int64, error) {
	if err := ValidateKey(key); err != nil {
		return 0, err
	}
	body, err := io.ReadAll(data)
	if err != nil {
		return 0, fmt.Errorf("failed to read document: %w", err)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return 0, fmt.Errorf("failed to put object: %w", err)
	}

	s.logger.Debug("Document uploaded to S3",
		zap.String("key", key),
		zap.String("bucket", s.bucket),
		zap.Int("size", len(body)),
	)
	return int64(len(body)), nil
}

// Get downloads the object named key
func (s *S3Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return out.Body, nil
}

// Delete removes the object named key. Deleting a missing object succeeds.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	s.logger.Info("Document deleted from S3",
		zap.String("key", key),
		zap.String("bucket", s.bucket),
	)
	return nil
}

// List returns the objects whose key starts with prefix, sorted by key
func (s *S3Storage) List(ctx context.Context, prefix string) ([]Info, error) {
	infos := []Info{}
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range out.Contents {
			infos = append(infos, Info{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}
