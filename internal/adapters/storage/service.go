// Package storage keeps generated CSV exports in S3 compatible object
// storage and hands out short lived download links.
package storage

import (
	"context"
	"io"
	"time"

	"outreach_backend/platform/config"
)

// PresignedURL is returned to the client instead of the file body when an
// export was uploaded.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Config = config.MinIOConfig

// ExportStore is consumed by the imports module. A nil ExportStore means
// exports are streamed in the response instead.
type ExportStore interface {
	// UploadExport returns the generated object key; fileName is only the
	// download name.
	UploadExport(ctx context.Context, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)
	ExportURL(ctx context.Context, fileKey string) (*PresignedURL, error)
}
