// Package storage is a filesystem abstraction for uploaded assets.
//
// Two drivers are available:
//
//   - "local": files under STORAGE_LOCAL_ROOT, served from STORAGE_URL
//   - "s3": S3-compatible object storage (AWS S3, MinIO, R2)
//
// Usage:
//
//	disk, err := storage.Default()
//	err = disk.Put(ctx, "menu/64f0.jpg", data, "image/jpeg")
//	url := disk.URL("menu/64f0.jpg")
package storage

import "context"

// Disk is the driver interface.
type Disk interface {
	// Put writes content to path, replacing any existing file.
	Put(ctx context.Context, path string, content []byte, contentType string) error

	// Get returns the full content of the file at path.
	Get(ctx context.Context, path string) ([]byte, error)

	// Exists reports whether a file exists at path.
	Exists(ctx context.Context, path string) bool

	// Delete removes a file. Returns nil if the file did not exist.
	Delete(ctx context.Context, path string) error

	// URL returns the public URL for path.
	URL(path string) string
}
