package service

import (
	"context"
	"io"

	"talentlink/internal/domain/entity"
)

// AttachmentUploader is the attachment gateway contract: it validates and
// stores a file and returns a stored reference. Validation failures surface
// as VALIDATION_ERROR and propagate to the caller unchanged.
type AttachmentUploader interface {
	Upload(ctx context.Context, file io.Reader, size int64, mimeType, originalName string) (*entity.Attachment, error)
	Close() error
}
