package outfit

import (
	"context"
	"log/slog"
)

// AssetResolver maps an asset key to a displayable image URL. A missing asset
// is a presentation concern: resolvers report errors only for transport
// failures, and the service degrades those to an empty URL rather than
// failing the recommendation.
type AssetResolver interface {
	Resolve(ctx context.Context, assetKey string) (string, error)
}

// Service produces recommendations with resolved image URLs.
type Service interface {
	Recommend(ctx context.Context, temperature float64, gender Gender, style Style) []Recommendation
}

type service struct {
	resolver AssetResolver
	logger   *slog.Logger
}

// NewService wires up the outfit domain.
func NewService(resolver AssetResolver, logger *slog.Logger) Service {
	return &service{
		resolver: resolver,
		logger:   logger.With("component", "outfit.service"),
	}
}

func (s *service) Recommend(ctx context.Context, temperature float64, gender Gender, style Style) []Recommendation {
	recommendations := Recommend(temperature, gender, style)
	if s.resolver == nil {
		return recommendations
	}
	for i := range recommendations {
		url, err := s.resolver.Resolve(ctx, recommendations[i].AssetKey)
		if err != nil {
			s.logger.Warn("asset resolution failed", "assetKey", recommendations[i].AssetKey, "error", err)
			continue
		}
		recommendations[i].ImageURL = url
	}
	return recommendations
}
