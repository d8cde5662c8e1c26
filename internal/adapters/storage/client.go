package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
)

const (
	// PresignedURLTTL is how long export download links stay valid.
	PresignedURLTTL = 15 * time.Minute
	// exportRetentionDays is how long the bucket keeps an export object.
	exportRetentionDays = 7
)

// MinIOService keeps CSV exports in a single bucket that expires objects
// after exportRetentionDays.
type MinIOService struct {
	client *minio.Client
	bucket string
	now    func() time.Time
}

var _ ExportStore = (*MinIOService)(nil)

func NewMinIOService(cfg Config) (*MinIOService, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinIOService{client: client, bucket: cfg.GetMinioBucketExports(), now: time.Now}, nil
}

// EnsureBucketExists creates the exports bucket on first start and installs
// the expiry rule. Both steps are idempotent.
func (s *MinIOService) EnsureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
	}
	if err := s.client.SetBucketLifecycle(ctx, s.bucket, expiryRule()); err != nil {
		return fmt.Errorf("set lifecycle on %s: %w", s.bucket, err)
	}
	return nil
}

func expiryRule() *lifecycle.Configuration {
	cfg := lifecycle.NewConfiguration()
	cfg.Rules = []lifecycle.Rule{{
		ID:         "expire-exports",
		Status:     "Enabled",
		Expiration: lifecycle.Expiration{Days: lifecycle.ExpirationDays(exportRetentionDays)},
	}}
	return cfg
}

// UploadExport stores reader under folder and returns the object key.
func (s *MinIOService) UploadExport(ctx context.Context, folder, fileName, contentType string, reader io.Reader, size int64) (string, error) {
	fileKey := objectKey(folder, fileName)
	_, err := s.client.PutObject(ctx, s.bucket, fileKey, reader, size, minio.PutObjectOptions{
		ContentType:        contentType,
		ContentDisposition: attachment(fileName),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", fileKey, err)
	}
	return fileKey, nil
}

// ExportURL presigns a GET for fileKey. The download keeps the user facing
// file name rather than the unique object key.
func (s *MinIOService) ExportURL(ctx context.Context, fileKey string) (*PresignedURL, error) {
	params := url.Values{}
	params.Set("response-content-disposition", attachment(displayName(fileKey)))

	expiresAt := s.now().Add(PresignedURLTTL)
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, fileKey, PresignedURLTTL, params)
	if err != nil {
		return nil, fmt.Errorf("presign %s: %w", fileKey, err)
	}
	return &PresignedURL{
		URL:       presigned.String(),
		FileKey:   fileKey,
		ExpiresAt: expiresAt,
	}, nil
}

// objectKey makes a collision free key like "<folder>/<base>_<8 hex><ext>".
func objectKey(folder, fileName string) string {
	ext := path.Ext(fileName)
	base := strings.TrimSuffix(path.Base(fileName), ext)
	return path.Join(folder, fmt.Sprintf("%s_%s%s", base, uuid.NewString()[:8], ext))
}

// displayName reverses objectKey's suffix: "a/contacts_1a2b3c4d.csv" gives
// "contacts.csv".
func displayName(fileKey string) string {
	name := path.Base(fileKey)
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if i := strings.LastIndexByte(base, '_'); i > 0 && len(base)-i-1 == 8 {
		base = base[:i]
	}
	return base + ext
}

func attachment(fileName string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": fileName})
}
