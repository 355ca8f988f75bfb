package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const defaultPresignTTL = 15 * time.Minute

// S3Service stores documents in Amazon S3 (or compatible APIs).
type S3Service struct {
	client   *s3.Client
	presign  *s3.PresignClient
	uploader *manager.Uploader
	cfg      Config
}

func NewS3Service(client *s3.Client, cfg Config) *S3Service {
	return &S3Service{
		client:   client,
		presign:  s3.NewPresignClient(client),
		uploader: manager.NewUploader(client),
		cfg:      cfg,
	}
}

func (s *S3Service) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (StoredObject, error) {
	if s.cfg.Bucket == "" {
		return StoredObject{}, fmt.Errorf("storage bucket is required")
	}
	if key == "" {
		return StoredObject{}, fmt.Errorf("object key is required")
	}

	fullKey := s.objectKey(key)
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(fullKey),
		Body:        body,
		ACL:         types.ObjectCannedACLPrivate,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return StoredObject{}, fmt.Errorf("upload %s: %w", fullKey, err)
	}

	url, err := s.objectURL(ctx, fullKey)
	if err != nil {
		return StoredObject{}, err
	}
	return StoredObject{Key: fullKey, URL: url}, nil
}

func (s *S3Service) Delete(ctx context.Context, key string) error {
	if s.cfg.Bucket == "" {
		return fmt.Errorf("storage bucket is required")
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("object key is required")
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (s *S3Service) Exists(ctx context.Context, key string) (bool, error) {
	if s.cfg.Bucket == "" {
		return false, fmt.Errorf("storage bucket is required")
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("head object %s: %w", key, err)
	}
	return true, nil
}

func (s *S3Service) objectKey(key string) string {
	prefix := strings.Trim(s.cfg.KeyPrefix, "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}

func (s *S3Service) objectURL(ctx context.Context, key string) (string, error) {
	if base := strings.TrimRight(s.cfg.PublicBaseURL, "/"); base != "" {
		return base + "/" + key, nil
	}

	ttl := defaultPresignTTL
	if s.cfg.PresignTTL > 0 {
		ttl = time.Duration(s.cfg.PresignTTL) * time.Second
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign object %s: %w", key, err)
	}
	return req.URL, nil
}

var _ Service = (*S3Service)(nil)
