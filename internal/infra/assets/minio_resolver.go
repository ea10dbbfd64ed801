package assets

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yanqian/stylecast/internal/domain/outfit"
)

const presignTTL = 15 * time.Minute

// MinioResolver serves outfit images from an S3-compatible bucket via
// presigned GET URLs. Asset keys map to objects under outfits/<key>.png.
type MinioResolver struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewMinioResolver constructs the object-storage backed resolver.
func NewMinioResolver(endpoint, accessKey, secretKey, bucket, region string, logger *slog.Logger) (*MinioResolver, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cleanEndpoint := sanitizeEndpoint(endpoint)
	useSSL := strings.HasPrefix(strings.ToLower(endpoint), "https")
	client, err := minio.New(cleanEndpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       useSSL,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init assets client: %w", err)
	}
	return &MinioResolver{client: client, bucket: bucket, logger: logger.With("component", "assets.minio")}, nil
}

// Resolve returns a presigned URL for the asset key.
func (r *MinioResolver) Resolve(ctx context.Context, assetKey string) (string, error) {
	objectKey := objectPath(assetKey)
	presigned, err := r.client.PresignedGetObject(ctx, r.bucket, objectKey, presignTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign asset %s: %w", objectKey, err)
	}
	return presigned.String(), nil
}

func objectPath(assetKey string) string {
	return fmt.Sprintf("outfits/%s.png", assetKey)
}

var _ outfit.AssetResolver = (*MinioResolver)(nil)

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if strings.Contains(raw, "/") {
		parts := strings.Split(raw, "/")
		raw = parts[0]
	}
	return raw
}
