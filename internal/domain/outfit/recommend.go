package outfit

import (
	"fmt"

	"github.com/yanqian/stylecast/internal/domain/forecast"
)

// numberOfVariants is the fixed recommendation count per catalogue bucket.
const numberOfVariants = 5

// variantLabels maps the 1-based ordinal to its display name.
var variantLabels = [numberOfVariants]string{
	"basic look",
	"casual look",
	"sporty look",
	"classic look",
	"daily look",
}

// Recommend maps a temperature and the two catalogue preferences to the fixed
// ordered list of suggestions. Pure and deterministic: identical inputs always
// produce identical output, and changing any input regenerates the whole list.
func Recommend(temperature float64, gender Gender, style Style) []Recommendation {
	category := forecast.Classify(temperature)

	recommendations := make([]Recommendation, 0, numberOfVariants)
	for i := 1; i <= numberOfVariants; i++ {
		recommendations = append(recommendations, Recommendation{
			AssetKey:    assetKey(gender, category, style, i),
			Title:       fmt.Sprintf("%s %s", style.Label(), variantLabel(i)),
			Description: fmt.Sprintf("%s • %s", category.Label(), gender.Label()),
		})
	}
	return recommendations
}

// assetKey builds the catalogue key, e.g. "men_cold_1" or "women_hot_minimal_3".
// The street catalogue uses unsuffixed keys.
func assetKey(gender Gender, category forecast.Category, style Style, ordinal int) string {
	if style == StyleMinimal {
		return fmt.Sprintf("%s_%s_minimal_%d", gender, category, ordinal)
	}
	return fmt.Sprintf("%s_%s_%d", gender, category, ordinal)
}

func variantLabel(ordinal int) string {
	if ordinal >= 1 && ordinal <= numberOfVariants {
		return variantLabels[ordinal-1]
	}
	return fmt.Sprintf("recommended style %d", ordinal)
}
