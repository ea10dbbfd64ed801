package forecast

import "time"

// Sample is one raw 3-hour forecast measurement as delivered by the provider.
// Samples are immutable inputs; the aggregator never mutates them.
type Sample struct {
	Timestamp         time.Time
	Temperature       float64
	TemperatureMin    float64
	TemperatureMax    float64
	ConditionCode     string
	PrecipProbability float64 // 0.0–1.0
}

// Observation is the current-weather reading shown alongside recommendations.
type Observation struct {
	City           string    `json:"city"`
	Timestamp      time.Time `json:"timestamp"`
	Temperature    float64   `json:"temperature"`
	FeelsLike      float64   `json:"feelsLike"`
	TemperatureMin float64   `json:"temperatureMin"`
	TemperatureMax float64   `json:"temperatureMax"`
	Humidity       int       `json:"humidity"`
	ConditionCode  string    `json:"conditionCode"`
	Description    string    `json:"description"`
}

// HourlyPoint is one entry of the near-term hourly view.
type HourlyPoint struct {
	Timestamp     time.Time `json:"timestamp"`
	Temperature   float64   `json:"temperature"`
	ConditionCode string    `json:"conditionCode"`
}

// DailySummary condenses all samples of one calendar date.
type DailySummary struct {
	Date                time.Time `json:"date"`
	Label               string    `json:"label"`
	ConditionCode       string    `json:"conditionCode"`
	MinTemperature      float64   `json:"minTemperature"`
	MaxTemperature      float64   `json:"maxTemperature"`
	PrecipitationChance int       `json:"precipitationChance"` // percent, 0–100
}

// Report bundles the two derived forecast views.
type Report struct {
	Hourly []HourlyPoint  `json:"hourly"`
	Daily  []DailySummary `json:"daily"`
}
