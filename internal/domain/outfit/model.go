package outfit

import (
	"fmt"
	"strings"
)

// Gender selects the asset catalogue half used for recommendations.
type Gender string

const (
	GenderMen   Gender = "men"
	GenderWomen Gender = "women"
)

// Style selects between the default street catalogue and the minimal one.
type Style string

const (
	StyleStreet  Style = "street"
	StyleMinimal Style = "minimal"
)

var genderLabels = map[Gender]string{
	GenderMen:   "Men",
	GenderWomen: "Women",
}

var styleLabels = map[Style]string{
	StyleStreet:  "Street",
	StyleMinimal: "Minimal",
}

// ParseGender validates a transport-level gender value.
func ParseGender(raw string) (Gender, error) {
	switch Gender(strings.ToLower(strings.TrimSpace(raw))) {
	case GenderMen:
		return GenderMen, nil
	case GenderWomen:
		return GenderWomen, nil
	default:
		return "", fmt.Errorf("unknown gender %q", raw)
	}
}

// ParseStyle validates a transport-level style value. Empty means street,
// mirroring the catalogue's unsuffixed default keys.
func ParseStyle(raw string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(raw))) {
	case StyleStreet, "":
		return StyleStreet, nil
	case StyleMinimal:
		return StyleMinimal, nil
	default:
		return "", fmt.Errorf("unknown style %q", raw)
	}
}

// Label returns the display name for the gender.
func (g Gender) Label() string {
	if label, ok := genderLabels[g]; ok {
		return label
	}
	return string(g)
}

// Label returns the display name for the style.
func (s Style) Label() string {
	if label, ok := styleLabels[s]; ok {
		return label
	}
	return string(s)
}

// Recommendation is one suggested outfit. AssetKey is the stable contract
// with the asset catalogue; ImageURL is filled in by the service when a
// resolver is configured.
type Recommendation struct {
	AssetKey    string `json:"assetKey"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl,omitempty"`
}
