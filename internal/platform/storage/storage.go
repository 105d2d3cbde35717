// Package storage keeps uploaded files in named buckets and serves them by public URL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

const (
	BucketInstallationPhotos = "installation-photos"
	BucketSiteSurveyPhotos   = "site-survey-photos"
	BucketDetachPhotos       = "detach-photos"
	BucketServicePhotos      = "service-photos"
	BucketInspectionPhotos   = "inspection-photos"
	BucketCustomerDocuments  = "customer-documents"
)

var Buckets = []string{
	BucketInstallationPhotos,
	BucketSiteSurveyPhotos,
	BucketDetachPhotos,
	BucketServicePhotos,
	BucketInspectionPhotos,
	BucketCustomerDocuments,
}

var (
	ErrUnknownBucket = errors.New("unknown storage bucket")
	ErrInvalidPath   = errors.New("invalid object path")
	ErrNotFound      = errors.New("object not found")
)

type Object struct {
	Bucket string `json:"bucket"`
	Path   string `json:"path"`
	URL    string `json:"url"`
	Size   int64  `json:"size"`
}

type Store interface {
	Put(ctx context.Context, bucket, objectPath string, r io.Reader) (Object, error)
	Open(ctx context.Context, bucket, objectPath string) (io.ReadCloser, error)
	Delete(ctx context.Context, bucket, objectPath string) error
	URL(bucket, objectPath string) string
}

// ObjectKey builds "{entityID}/{itemID}/{unix millis}.{ext}".
func ObjectKey(entityID, itemID string, at time.Time, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%s/%s/%d.%s", entityID, itemID, at.UnixMilli(), ext)
}

func ValidBucket(bucket string) bool {
	for _, candidate := range Buckets {
		if candidate == bucket {
			return true
		}
	}
	return false
}

// Local stores objects under root/<bucket>/<path>.
type Local struct {
	root      string
	publicURL string
}

func NewLocal(root, publicURL string) (*Local, error) {
	for _, bucket := range Buckets {
		if err := os.MkdirAll(filepath.Join(root, bucket), 0o755); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	return &Local{root: root, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (l *Local) resolve(bucket, objectPath string) (string, error) {
	if !ValidBucket(bucket) {
		return "", ErrUnknownBucket
	}
	clean := path.Clean("/" + objectPath)
	if clean == "/" || strings.Contains(objectPath, "..") {
		return "", ErrInvalidPath
	}
	return filepath.Join(l.root, bucket, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

func (l *Local) Put(ctx context.Context, bucket, objectPath string, r io.Reader) (Object, error) {
	full, err := l.resolve(bucket, objectPath)
	if err != nil {
		return Object{}, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return Object{}, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return Object{}, err
	}
	size, copyErr := io.Copy(tmp, contextReader{ctx: ctx, r: r})
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmp.Name())
		return Object{}, errors.Join(copyErr, closeErr)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		_ = os.Remove(tmp.Name())
		return Object{}, err
	}
	return Object{Bucket: bucket, Path: objectPath, URL: l.URL(bucket, objectPath), Size: size}, nil
}

func (l *Local) Open(_ context.Context, bucket, objectPath string) (io.ReadCloser, error) {
	full, err := l.resolve(bucket, objectPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

// Delete removes the object; deleting a missing object is not an error.
func (l *Local) Delete(_ context.Context, bucket, objectPath string) error {
	full, err := l.resolve(bucket, objectPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (l *Local) URL(bucket, objectPath string) string {
	return l.publicURL + "/" + bucket + "/" + strings.TrimPrefix(objectPath, "/")
}

// Handler serves public URLs; mount it with http.StripPrefix on the public URL path.
func (l *Local) Handler() http.Handler {
	files := http.FileServer(http.Dir(l.root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bucket, _, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
		if !ValidBucket(bucket) || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
