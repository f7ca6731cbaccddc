// Package storage keeps uploaded user documents and property images in a
// Cloudflare R2 bucket through the S3 API.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"estacrm_backend/pkg/config"
)

type Object struct {
	Key string
	URL string
}

type R2Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

func NewR2Store(ctx context.Context, cfg config.StorageConfig) (*R2Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID))
		o.UsePathStyle = true
		o.Region = "auto"
	})

	baseURL := cfg.CDNBaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.r2.dev", cfg.BucketName)
	}

	return &R2Store{
		client:  client,
		bucket:  cfg.BucketName,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *R2Store) Put(ctx context.Context, key string, body io.Reader, contentType string) (Object, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return Object{}, fmt.Errorf("could not upload file to R2: %w", err)
	}

	return Object{Key: key, URL: PublicURL(s.baseURL, key)}, nil
}

func (s *R2Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("could not delete file from R2: %w", err)
	}
	return nil
}

// ObjectKey builds a unique, URL-safe key such as
// "properties/villa-12/images/1700000000-<uuid>.webp".
func ObjectKey(fileName string, folders ...string) string {
	parts := make([]string, 0, len(folders)+1)
	for _, f := range folders {
		if s := slug.Make(f); s != "" {
			parts = append(parts, s)
		}
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	unique := fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), uuid.New().String(), ext)
	return path.Join(append(parts, unique)...)
}

func PublicURL(baseURL, key string) string {
	return strings.TrimRight(baseURL, "/") + "/" + key
}

// KeyFromURL reverses PublicURL for rows stored before object keys were kept.
func KeyFromURL(baseURL, url string) string {
	return strings.TrimPrefix(url, strings.TrimRight(baseURL, "/")+"/")
}
