package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/codingswamp/codingswamp-backend/internal/platform/envutil"
	"github.com/codingswamp/codingswamp-backend/internal/platform/logger"
)

// FileService is the file-store collaborator for avatars and study
// thumbnails: store a file, get a public URL back, delete by URL later.
// When no file is supplied callers fall back to DefaultImageURL, which is
// never stored and never deleted.
type FileService interface {
	StoreImage(ctx context.Context, file io.Reader, filename string) (string, error)
	DeleteImage(ctx context.Context, url string) error
	DefaultImageURL() string
}

type fileService struct {
	log        *logger.Logger
	bucket     BucketService
	defaultURL string
}

func NewFileService(log *logger.Logger, bucket BucketService) FileService {
	fallback := ""
	if bucket != nil {
		fallback = bucket.GetPublicURL("images/default-profile.png")
	}
	return &fileService{
		log:        log.With("service", "FileService"),
		bucket:     bucket,
		defaultURL: envutil.String("DEFAULT_IMAGE_URL", fallback),
	}
}

func (fs *fileService) StoreImage(ctx context.Context, file io.Reader, filename string) (string, error) {
	if fs.bucket == nil {
		return "", fmt.Errorf("file storage is not configured")
	}
	key := "images/" + uuid.New().String() + strings.ToLower(path.Ext(filename))
	if err := fs.bucket.UploadFile(ctx, key, file); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return fs.bucket.GetPublicURL(key), nil
}

func (fs *fileService) DeleteImage(ctx context.Context, url string) error {
	if fs.bucket == nil || url == "" || url == fs.defaultURL {
		return nil
	}
	prefix := fs.bucket.GetPublicURL("")
	if !strings.HasPrefix(url, prefix) {
		fs.log.Warn("Refusing to delete image outside the bucket", "url", url)
		return nil
	}
	return fs.bucket.DeleteFile(ctx, strings.TrimPrefix(url, prefix))
}

func (fs *fileService) DefaultImageURL() string {
	return fs.defaultURL
}
