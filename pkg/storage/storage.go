package storage

import (
	"context"
	"fmt"
	"io"
)

// ImageStorage stores listing photos and avatars and hands back public URLs.
type ImageStorage interface {
	// UploadImage stores the reader under folder and returns its public URL.
	// size may be -1 when unknown.
	UploadImage(ctx context.Context, r io.Reader, size int64, folder, fileName string) (string, error)
	// DeleteImage removes an object previously returned by UploadImage.
	DeleteImage(ctx context.Context, fileURL string) error
}

const (
	DriverCloudinary = "cloudinary"
	DriverMinIO      = "minio"
)

type Config struct {
	Driver string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
	MinIOPublicURL string
}

// New picks the backend named by cfg.Driver.
func New(ctx context.Context, cfg Config) (ImageStorage, error) {
	switch cfg.Driver {
	case DriverCloudinary, "":
		return NewCloudinaryStorage(cfg)
	case DriverMinIO:
		return NewMinIOStorage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
