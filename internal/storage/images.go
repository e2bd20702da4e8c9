// Package storage decodes uploaded images and writes them under the
// public image directory served at /images.
package storage

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidDataURL   = errors.New("image must be a base64 data URL")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrImageTooLarge    = errors.New("image exceeds size limit")
)

var dataURLPattern = regexp.MustCompile(`^data:([a-zA-Z0-9.+/-]+);base64,(.*)$`)

var extensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

var safeSegment = regexp.MustCompile(`[^a-z0-9_-]+`)

// ImageStore writes images to disk
type ImageStore struct {
	dir       string
	urlPrefix string
	maxBytes  int
}

// NewImageStore creates a store rooted at dir whose files are served under urlPrefix
func NewImageStore(dir, urlPrefix string, maxUploadMB int) *ImageStore {
	if urlPrefix == "" {
		urlPrefix = "/images"
	}
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	return &ImageStore{
		dir:       dir,
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
		maxBytes:  maxUploadMB << 20,
	}
}

// Dir returns the root directory on disk
func (s *ImageStore) Dir() string {
	return s.dir
}

// URLPrefix returns the public URL prefix
func (s *ImageStore) URLPrefix() string {
	return s.urlPrefix
}

// DecodeDataURL returns the payload bytes and file extension of a data URL.
// The declared type must agree with the sniffed content.
func DecodeDataURL(dataURL string, maxBytes int) ([]byte, string, error) {
	m := dataURLPattern.FindStringSubmatch(strings.TrimSpace(dataURL))
	if m == nil {
		return nil, "", ErrInvalidDataURL
	}
	declared := strings.ToLower(m[1])
	ext, ok := extensions[declared]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedImage, declared)
	}

	encoded := m[2]
	if maxBytes > 0 && base64.StdEncoding.DecodedLen(len(encoded)) > maxBytes+3 {
		return nil, "", ErrImageTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	if len(data) == 0 {
		return nil, "", ErrInvalidDataURL
	}
	if maxBytes > 0 && len(data) > maxBytes {
		return nil, "", ErrImageTooLarge
	}

	if sniffed := http.DetectContentType(data); sniffed != declared {
		return nil, "", fmt.Errorf("%w: declared %s, content is %s", ErrUnsupportedImage, declared, sniffed)
	}
	return data, ext, nil
}

// SaveDataURL decodes dataURL and writes it to <dir>/<category>/<uuid>.<ext>.
// It returns the public URL of the file.
func (s *ImageStore) SaveDataURL(category, dataURL string) (string, error) {
	data, ext, err := DecodeDataURL(dataURL, s.maxBytes)
	if err != nil {
		return "", err
	}

	category = safeSegment.ReplaceAllString(strings.ToLower(category), "")
	if category == "" {
		category = "misc"
	}

	dir := filepath.Join(s.dir, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}

	name := uuid.NewString() + "." + ext
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	if _, err := tmp.ReadFrom(bytes.NewReader(data)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write image: %w", err)
	}

	return path.Join(s.urlPrefix, category, name), nil
}

// NormalizeURL turns stored image references into URLs the site can load:
// absolute http(s) and data URLs are kept, backslashes become slashes and
// relative paths get a leading slash.
func NormalizeURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	lower := strings.ToLower(u)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "data:") || strings.HasPrefix(u, "//") {
		return u
	}
	u = strings.ReplaceAll(u, "\\", "/")
	u = strings.TrimPrefix(u, "./")
	if strings.HasPrefix(u, "public/") {
		u = strings.TrimPrefix(u, "public")
	}
	if !strings.HasPrefix(u, "/") {
		u = "/" + u
	}
	return u
}
