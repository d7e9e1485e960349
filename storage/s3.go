package storage

import (
	"bytes"
	"context"
	"fmt"

	appcfg "unilms_go/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client wraps the archive bucket operations.
type S3Client struct {
	client *s3.Client
	bucket string
}

// NewS3Client builds a client for the configured archive bucket.
func NewS3Client(ctx context.Context) (*S3Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(appcfg.AppConfig.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &S3Client{
		client: s3.NewFromConfig(cfg),
		bucket: appcfg.AppConfig.S3BucketName,
	}, nil
}

// Upload stores a blob under key and returns its size.
func (c *S3Client) Upload(ctx context.Context, key string, data []byte, contentType string) (int64, error) {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return int64(len(data)), nil
}

// Delete removes an archived object.
func (c *S3Client) Delete(ctx context.Context, key string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
