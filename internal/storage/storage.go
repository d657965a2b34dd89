// Package storage keeps uploaded images (product photos, banners, payment slips).
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// MaxImageSize is the largest accepted upload.
const MaxImageSize = 10 << 20

// Upload folders.
const (
	FolderProducts = "products"
	FolderBanners  = "banners"
	FolderSlips    = "payment-slips"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds 10 MiB")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrEmptyFile       = errors.New("file is empty")
	ErrInvalidFolder   = errors.New("invalid folder")
	ErrObjectNotFound  = errors.New("object not found")
	ErrForeignURL      = errors.New("url does not belong to this store")
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

var folderPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// ImageStore writes objects to an afero filesystem and hands out public URLs
// of the form <baseURL><publicPath>/<folder>/<name>.
type ImageStore struct {
	fs         afero.Fs
	publicPath string
	baseURL    string
	logger     *zap.Logger
}

func NewImageStore(fs afero.Fs, baseURL, publicPath string, logger *zap.Logger) *ImageStore {
	publicPath = "/" + strings.Trim(publicPath, "/")
	return &ImageStore{
		fs:         fs,
		publicPath: publicPath,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// NewDiskImageStore stores objects below dir on the local disk.
func NewDiskImageStore(dir, baseURL, publicPath string, logger *zap.Logger) (*ImageStore, error) {
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return NewImageStore(afero.NewBasePathFs(osFs, dir), baseURL, publicPath, logger), nil
}

// Save validates and stores an image and returns its public URL. The declared
// content type is only a hint: the stored type is sniffed from the bytes.
func (s *ImageStore) Save(ctx context.Context, folder, filename string, r io.Reader, contentType string) (string, error) {
	if !folderPattern.MatchString(folder) {
		return "", ErrInvalidFolder
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if len(data) > MaxImageSize {
		return "", ErrFileTooLarge
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	sniffed := mimetype.Detect(data).String()
	ext, ok := imageExtensions[sniffed]
	if !ok {
		s.logger.Warn("Rejected upload",
			zap.String("filename", filename),
			zap.String("declared_type", contentType),
			zap.String("detected_type", sniffed),
		)
		return "", ErrUnsupportedType
	}

	// Object keys are rooted so the http file server finds them on any afero.Fs.
	dir := path.Join("/", folder)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create folder: %w", err)
	}

	name := uuid.NewString() + ext
	objectPath := path.Join(dir, name)
	if err := afero.WriteReader(s.fs, objectPath, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to write object: %w", err)
	}

	s.logger.Info("Stored upload",
		zap.String("object", objectPath),
		zap.Int("bytes", len(data)),
	)
	return s.URL(objectPath), nil
}

// URL returns the public URL of an object path.
func (s *ImageStore) URL(objectPath string) string {
	return s.baseURL + s.publicPath + "/" + strings.TrimLeft(objectPath, "/")
}

// Delete removes the object behind a URL produced by Save.
func (s *ImageStore) Delete(ctx context.Context, url string) error {
	objectPath, err := s.objectPath(url)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	exists, err := afero.Exists(s.fs, objectPath)
	if err != nil {
		return fmt.Errorf("failed to stat object: %w", err)
	}
	if !exists {
		return ErrObjectNotFound
	}
	if err := s.fs.Remove(objectPath); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (s *ImageStore) objectPath(url string) (string, error) {
	prefix := s.baseURL + s.publicPath + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", ErrForeignURL
	}
	rel := path.Clean(strings.TrimPrefix(url, prefix))
	if rel == "." || strings.HasPrefix(rel, "..") {
		return "", ErrForeignURL
	}
	return path.Join("/", rel), nil
}

// Handler serves stored objects read-only. Mount it under the public path.
func (s *ImageStore) Handler() http.Handler {
	files := http.FileServer(afero.NewHttpFs(afero.NewReadOnlyFs(s.fs)).Dir("/"))
	return http.StripPrefix(s.publicPath, noDirListing(files))
}

func (s *ImageStore) PublicPath() string {
	return s.publicPath
}

func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
