// FilePath: internal/repository/files/files.storage.go
package files

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/itsatony/talkingplants/internal/config"
	"github.com/itsatony/talkingplants/internal/errors"
	"github.com/itsatony/talkingplants/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

const (
	defaultPermissions = 0755
	defaultDateFormat  = "20060102_150405"
)

var mimeExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/heic": ".heic",
}

// PhotoRepo keeps plant photos on local disk and serves them under a public prefix
type PhotoRepo struct {
	config FileStoreConfig
}

// FileStoreConfig holds configuration for the photo storage
type FileStoreConfig struct {
	BasePath     string
	PublicPrefix string
	MaxFileSize  int64
	AllowedMime  []string
}

// ConfigFrom maps the service configuration onto the store's config
func ConfigFrom(cfg config.FileStoreConfig) FileStoreConfig {
	return FileStoreConfig{
		BasePath:     cfg.BasePath,
		PublicPrefix: cfg.PublicPrefix,
		MaxFileSize:  cfg.MaxFileSize,
		AllowedMime:  cfg.AllowedMimeTypes,
	}
}

// NewPhotoRepository creates the base directory if needed
func NewPhotoRepository(cfg FileStoreConfig) (*PhotoRepo, error) {
	if err := createDirectoryIfNotExists(cfg.BasePath); err != nil {
		return nil, err
	}
	cfg.PublicPrefix = "/" + strings.Trim(cfg.PublicPrefix, "/")
	return &PhotoRepo{config: cfg}, nil
}

// Store writes the photo and returns the URL it is served under
func (r *PhotoRepo) Store(ctx context.Context, name string, contentType string, size int64, src io.Reader) (string, error) {
	if r.config.MaxFileSize > 0 && size > r.config.MaxFileSize {
		return "", errors.NewValidationError("file size exceeds maximum allowed size", nil)
	}
	if !r.isAllowedMimeType(contentType) {
		return "", errors.NewValidationError("unsupported file type", nil)
	}
	if err := ctx.Err(); err != nil {
		return "", errors.NewInternalError("photo upload cancelled", err)
	}

	filename := r.generateFilename(name, contentType)
	fullPath := filepath.Join(r.config.BasePath, filename)

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", errors.NewInternalError("failed to create destination file", err)
	}

	limit := r.config.MaxFileSize
	if limit <= 0 {
		limit = 1 << 62
	}
	written, err := io.Copy(dst, io.LimitReader(src, limit+1))
	closeErr := dst.Close()
	if err == nil && written > limit {
		err = errors.NewValidationError("file size exceeds maximum allowed size", nil)
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(fullPath)
		if _, ok := errors.AsAPIError(err); ok {
			return "", err
		}
		return "", errors.NewInternalError("failed to copy file", err)
	}

	nuts.L.Infof("[PhotoRepo] Stored photo: %s (%d bytes)", filename, written)
	return path.Join(r.config.PublicPrefix, filename), nil
}

// Delete removes a photo previously returned by Store
func (r *PhotoRepo) Delete(ctx context.Context, url string) error {
	rel := strings.TrimPrefix(url, r.config.PublicPrefix+"/")
	if rel == url || rel == "" || strings.ContainsAny(rel, `/\`) || strings.Contains(rel, "..") {
		return errors.NewValidationError("not a stored photo url", nil)
	}
	if err := os.Remove(filepath.Join(r.config.BasePath, rel)); err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFoundError("photo not found", err)
		}
		return errors.NewInternalError("failed to delete file", err)
	}
	nuts.L.Infof("[PhotoRepo] Deleted photo: %s", rel)
	return nil
}

// List returns every regular file in the store with its public URL
func (r *PhotoRepo) List(ctx context.Context) ([]repository.StoredPhoto, error) {
	entries, err := os.ReadDir(r.config.BasePath)
	if err != nil {
		return nil, errors.NewInternalError("failed to list photos", err)
	}
	photos := make([]repository.StoredPhoto, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewInternalError("photo listing cancelled", err)
		}
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// removed while listing
			continue
		}
		photos = append(photos, repository.StoredPhoto{
			URL:     path.Join(r.config.PublicPrefix, e.Name()),
			ModTime: info.ModTime(),
		})
	}
	return photos, nil
}

// BasePath is the directory photos are served from
func (r *PhotoRepo) BasePath() string {
	return r.config.BasePath
}

// PublicPrefix is the URL path photos are served under
func (r *PhotoRepo) PublicPrefix() string {
	return r.config.PublicPrefix
}

func (r *PhotoRepo) generateFilename(name, contentType string) string {
	ext := mimeExtensions[contentType]
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(name))
	}
	return fmt.Sprintf("%s_%s%s", time.Now().UTC().Format(defaultDateFormat), nuts.NID("ph", 12), ext)
}

func (r *PhotoRepo) isAllowedMimeType(mimeType string) bool {
	if len(r.config.AllowedMime) == 0 {
		_, ok := mimeExtensions[mimeType]
		return ok
	}
	for _, allowed := range r.config.AllowedMime {
		if allowed == mimeType {
			return true
		}
	}
	return false
}

func createDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		err := os.MkdirAll(path, defaultPermissions)
		if err != nil {
			return errors.NewInternalError("failed to create directory", err)
		}
	}
	return nil
}
