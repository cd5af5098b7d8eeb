package dbmongo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gochat/internal/common"
)

var ErrObjectNotFound = errors.New("object not found")

// MediaStorage is the GridFS-backed object store. Objects are addressed by storage path,
// which is used as the GridFS file name.
type MediaStorage struct {
	gridFS  *gridfs.Bucket
	signer  *common.TokenSigner
	baseURL string
}

func NewMediaStorage(mongoClient *MongoClient, signer *common.TokenSigner, baseURL string) *MediaStorage {
	return &MediaStorage{
		gridFS:  mongoClient.GridFS,
		signer:  signer,
		baseURL: normalizeBaseURL(baseURL),
	}
}

type StoredObject struct {
	Path        string
	ContentType string
	Size        int64
	UploadedAt  time.Time
}

func (ms *MediaStorage) Put(ctx context.Context, path, contentType string, content io.Reader) error {
	metadata := bson.M{
		"content_type": contentType,
		"family":       common.DetectFileFamily(contentType).String(),
	}

	opts := options.GridFSUpload().SetMetadata(metadata)
	stream, err := ms.gridFS.OpenUploadStream(path, opts)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := stream.SetWriteDeadline(deadline); err != nil {
			stream.Abort()
			return fmt.Errorf("set upload deadline: %w", err)
		}
	}

	if _, err := io.Copy(stream, content); err != nil {
		stream.Abort()
		return fmt.Errorf("file copy failed: %w", err)
	}

	// Close writes the files document; until then the object does not exist.
	if err := stream.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}
	return nil
}

// Open streams the newest revision stored under path.
func (ms *MediaStorage) Open(ctx context.Context, path string) (io.ReadCloser, *StoredObject, error) {
	stream, err := ms.gridFS.OpenDownloadStreamByName(path)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrObjectNotFound, path)
		}
		return nil, nil, fmt.Errorf("download failed: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetReadDeadline(deadline)
	}

	fileInfo := stream.GetFile()
	var metadata bson.M
	if fileInfo.Metadata != nil {
		_ = bson.Unmarshal(fileInfo.Metadata, &metadata)
	}

	return stream, &StoredObject{
		Path:        fileInfo.Name,
		ContentType: getStringFromMap(metadata, "content_type"),
		Size:        fileInfo.Length,
		UploadedAt:  fileInfo.UploadDate,
	}, nil
}

// Delete removes every revision stored under path.
func (ms *MediaStorage) Delete(ctx context.Context, path string) error {
	cursor, err := ms.gridFS.FindContext(ctx, bson.M{"filename": path})
	if err != nil {
		return fmt.Errorf("find object: %w", err)
	}
	defer cursor.Close(ctx)

	var files []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &files); err != nil {
		return fmt.Errorf("decode object ids: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, path)
	}

	for _, f := range files {
		if err := ms.gridFS.DeleteContext(ctx, f.ID); err != nil {
			return fmt.Errorf("delete object %s: %w", f.ID.Hex(), err)
		}
	}
	return nil
}

// SignURL issues a short-lived link served by the media server. Nothing is stored.
func (ms *MediaStorage) SignURL(ctx context.Context, path string, ttl time.Duration) (string, time.Time, error) {
	return signURL(ms.signer, ms.baseURL, path, ttl)
}

func signURL(signer *common.TokenSigner, baseURL, path string, ttl time.Duration) (string, time.Time, error) {
	if signer == nil {
		return "", time.Time{}, errors.New("media storage has no URL signer")
	}
	token, expiresAt, err := signer.SignMediaPath(path, ttl)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s: %w", path, err)
	}
	return baseURL + token, expiresAt, nil
}

func normalizeBaseURL(baseURL string) string {
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		return baseURL + "/"
	}
	return baseURL
}

// Helper function for metadata extraction
func getStringFromMap(m bson.M, key string) string {
	if m == nil {
		return ""
	}
	if val, ok := m[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}
