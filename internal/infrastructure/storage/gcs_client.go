package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"talentlink/internal/domain/entity"
	"talentlink/internal/domain/service"
	"talentlink/pkg/errors"
)

var allowedMimeTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/jpg":       ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"application/pdf": ".pdf",
}

type CloudStorageClient struct {
	client       *storage.Client
	bucketName   string
	maxSizeBytes int64
}

func NewCloudStorageClient(ctx context.Context, bucketName string, maxSizeBytes int64, credentialsPath string) (service.AttachmentUploader, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %v", err)
	}

	return &CloudStorageClient{
		client:       client,
		bucketName:   bucketName,
		maxSizeBytes: maxSizeBytes,
	}, nil
}

// Upload validates type and size, stores the file and returns its stored
// reference. Rejections are VALIDATION_ERROR and propagate unchanged.
func (c *CloudStorageClient) Upload(ctx context.Context, file io.Reader, size int64, mimeType, originalName string) (*entity.Attachment, error) {
	ext, ok := allowedMimeTypes[mimeType]
	if !ok {
		return nil, errors.Validation(fmt.Sprintf("file type %s is not allowed", mimeType), nil)
	}
	if size > c.maxSizeBytes {
		return nil, errors.Validation(fmt.Sprintf("file exceeds the maximum size of %d bytes", c.maxSizeBytes), nil)
	}

	objectName := fmt.Sprintf("attachments/%s-%s%s", uuid.New().String(), time.Now().Format("20060102150405"), ext)

	obj := c.client.Bucket(c.bucketName).Object(objectName)
	wc := obj.NewWriter(ctx)
	wc.ContentType = mimeType
	wc.CacheControl = "public, max-age=86400" // 1 day caching

	if _, err := io.Copy(wc, file); err != nil {
		return nil, errors.Internal("Failed to copy file to storage", err)
	}

	if err := wc.Close(); err != nil {
		return nil, errors.Internal("Failed to finalize upload", err)
	}

	return &entity.Attachment{
		URL:          fmt.Sprintf("https://storage.googleapis.com/%s/%s", c.bucketName, objectName),
		MimeType:     mimeType,
		OriginalName: originalName,
	}, nil
}

func (c *CloudStorageClient) Close() error {
	return c.client.Close()
}
