package forecast

// Category is a temperature band driving outfit selection.
type Category string

const (
	CategoryCold Category = "cold"
	CategoryCool Category = "cool"
	CategoryMild Category = "mild"
	CategoryHot  Category = "hot"
)

// categoryBands lists the half-open upper bounds, coldest first. A temperature
// below Upper falls into the band; anything past the table is hot.
var categoryBands = []struct {
	Upper    float64
	Category Category
}{
	{6, CategoryCold},
	{17, CategoryCool},
	{28, CategoryMild},
}

var categoryLabels = map[Category]string{
	CategoryCold: "5°C and below",
	CategoryCool: "6–16°C",
	CategoryMild: "17–27°C",
	CategoryHot:  "28°C and above",
}

// Classify maps a temperature to its Category. Total over all floats.
func Classify(temperature float64) Category {
	for _, band := range categoryBands {
		if temperature < band.Upper {
			return band.Category
		}
	}
	return CategoryHot
}

// Label returns the human-readable band description.
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

func (c Category) String() string { return string(c) }
