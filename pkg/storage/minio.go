package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type minioStorage struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinIOStorage connects to an S3 compatible endpoint and makes sure the
// bucket exists with anonymous read access on its objects.
func NewMinIOStorage(ctx context.Context, cfg Config) (ImageStorage, error) {
	client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinIOBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.MinIOBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinIOBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.MinIOBucket, err)
		}
		policy, _ := json.Marshal(map[string]any{
			"Version": "2012-10-17",
			"Statement": []map[string]any{{
				"Effect":    "Allow",
				"Principal": "*",
				"Action":    []string{"s3:GetObject"},
				"Resource":  []string{"arn:aws:s3:::" + cfg.MinIOBucket + "/*"},
			}},
		})
		if err := client.SetBucketPolicy(ctx, cfg.MinIOBucket, string(policy)); err != nil {
			return nil, fmt.Errorf("failed to set bucket policy: %w", err)
		}
	}

	publicURL := cfg.MinIOPublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.MinIOUseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s", scheme, cfg.MinIOEndpoint)
	}

	return &minioStorage{
		client:    client,
		bucket:    cfg.MinIOBucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

func (s *minioStorage) UploadImage(ctx context.Context, r io.Reader, size int64, folder, fileName string) (string, error) {
	ext := strings.ToLower(path.Ext(fileName))
	objectName := path.Join(folder, time.Now().Format("2006/01"), uuid.NewString()+ext)

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if _, err := s.client.PutObject(ctx, s.bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", fmt.Errorf("failed to upload object to minio: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, objectName), nil
}

func (s *minioStorage) DeleteImage(ctx context.Context, fileURL string) error {
	objectName := objectNameFromURL(fileURL, s.bucket)
	if objectName == "" {
		return fmt.Errorf("could not extract object name from URL: %s", fileURL)
	}

	if err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object from minio: %w", err)
	}
	return nil
}

func objectNameFromURL(fileURL, bucket string) string {
	u, err := url.Parse(fileURL)
	if err != nil {
		return ""
	}
	_, name, found := strings.Cut(u.Path, "/"+bucket+"/")
	if !found {
		return ""
	}
	return name
}
