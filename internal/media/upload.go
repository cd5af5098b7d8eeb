// Package media moves attachment bytes between composers, the object store and readers.
package media

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"gochat/internal/common"
	"gochat/internal/dbmysql"
	"gochat/internal/logger"
	"gochat/internal/metrics"
)

const (
	// MaxAttachmentSize is inclusive: a file of exactly this size is accepted.
	MaxAttachmentSize int64 = 10 << 20

	DefaultSignedURLTTL = 5 * time.Minute
	MaxSignedURLTTL     = 10 * time.Minute
)

// File is an attachment waiting to be uploaded.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f File) Size() int64 { return int64(len(f.Data)) }

// CheckSize rejects files over MaxAttachmentSize.
func CheckSize(f File) error {
	if f.Size() > MaxAttachmentSize {
		return common.NewValidationError("file", common.ErrFileTooLarge,
			fmt.Sprintf("%s is %s, the limit is %s", f.Name, humanize.IBytes(uint64(f.Size())), humanize.IBytes(uint64(MaxAttachmentSize))))
	}
	return nil
}

type AttachmentRecorder interface {
	CreateAttachment(ctx context.Context, att *dbmysql.Attachment) error
}

type Uploader struct {
	objects common.ObjectStore
	records AttachmentRecorder
}

func NewUploader(objects common.ObjectStore, records AttachmentRecorder) *Uploader {
	return &Uploader{objects: objects, records: records}
}

// Upload stores the bytes under <messageID>/<uuid><ext> and then records the attachment.
// If the record cannot be written the stored object is left behind, logged and counted.
func (u *Uploader) Upload(ctx context.Context, uploaderID, messageID string, f File) (*dbmysql.Attachment, error) {
	if err := CheckSize(f); err != nil {
		return nil, err
	}

	contentType := f.ContentType
	if contentType == "" {
		contentType = common.ContentTypeForName(f.Name)
	}
	path := StoragePath(messageID, f.Name)

	if err := u.objects.Put(ctx, path, contentType, bytes.NewReader(f.Data)); err != nil {
		return nil, common.Transient("store "+f.Name, err)
	}

	att := &dbmysql.Attachment{
		MessageID:    messageID,
		Filename:     filepath.Base(path),
		OriginalName: f.Name,
		ContentType:  contentType,
		SizeBytes:    f.Size(),
		StoragePath:  path,
		UploadedBy:   uploaderID,
	}
	if err := u.records.CreateAttachment(ctx, att); err != nil {
		metrics.OrphanBlobs.Inc()
		logger.Log.Error("attachment stored without record",
			zap.String("storage_path", path),
			zap.String("message_id", messageID),
			zap.Error(err))
		return nil, common.Transient("record "+f.Name, fmt.Errorf("%w (%s): %w", common.ErrOrphanedBlob, path, err))
	}

	logger.Log.Debug("attachment uploaded",
		zap.String("storage_path", path),
		zap.String("size", humanize.IBytes(uint64(f.Size()))))
	return att, nil
}

func StoragePath(messageID, filename string) string {
	return messageID + "/" + uuid.NewString() + strings.ToLower(filepath.Ext(filename))
}

type SignedURL struct {
	URL       string
	ExpiresAt time.Time
}

// SignedURL issues a fresh link for path. A ttl of zero or less means DefaultSignedURLTTL;
// anything above MaxSignedURLTTL is clamped. Links are never cached.
func (u *Uploader) SignedURL(ctx context.Context, path string, ttl time.Duration) (SignedURL, error) {
	switch {
	case ttl <= 0:
		ttl = DefaultSignedURLTTL
	case ttl > MaxSignedURLTTL:
		ttl = MaxSignedURLTTL
	}

	url, expiresAt, err := u.objects.SignURL(ctx, path, ttl)
	if err != nil {
		return SignedURL{}, common.Transient("sign "+path, err)
	}
	return SignedURL{URL: url, ExpiresAt: expiresAt}, nil
}
