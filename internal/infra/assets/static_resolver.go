package assets

import (
	"context"
	"fmt"
	"strings"

	"github.com/yanqian/stylecast/internal/domain/outfit"
)

// StaticResolver maps asset keys onto a fixed public base URL. Used when the
// outfit catalog is served from a CDN or the app's own static file host
// instead of object storage.
type StaticResolver struct {
	baseURL string
}

// NewStaticResolver constructs a resolver rooted at baseURL.
func NewStaticResolver(baseURL string) *StaticResolver {
	return &StaticResolver{baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/")}
}

// Resolve joins the base URL with the asset key. Never fails.
func (r *StaticResolver) Resolve(_ context.Context, assetKey string) (string, error) {
	return fmt.Sprintf("%s/outfits/%s.png", r.baseURL, assetKey), nil
}

var _ outfit.AssetResolver = (*StaticResolver)(nil)
