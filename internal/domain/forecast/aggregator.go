package forecast

import (
	"fmt"
	"math"
	"sort"
	"time"
)

const (
	// hourlyWindow is the number of leading samples kept for the hourly view,
	// roughly 24 hours at the provider's 3-hour spacing.
	hourlyWindow = 8
	// maxDailySummaries caps the daily view.
	maxDailySummaries = 5
)

// Aggregator turns a raw forecast sample series into hourly and daily views.
// It is stateless and safe for concurrent use; the only configuration is the
// calendar zone used to split samples into days.
type Aggregator struct {
	loc *time.Location
}

// NewAggregator builds an aggregator grouping days in loc. A nil loc means UTC.
func NewAggregator(loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{loc: loc}
}

// Aggregate derives both forecast views from samples ordered by ascending
// timestamp. Empty input yields empty views, never an error.
func (a *Aggregator) Aggregate(samples []Sample) Report {
	return Report{
		Hourly: a.hourlyView(samples),
		Daily:  a.dailyView(samples),
	}
}

func (a *Aggregator) hourlyView(samples []Sample) []HourlyPoint {
	n := len(samples)
	if n > hourlyWindow {
		n = hourlyWindow
	}
	points := make([]HourlyPoint, 0, n)
	for _, s := range samples[:n] {
		points = append(points, HourlyPoint{
			Timestamp:     s.Timestamp,
			Temperature:   s.Temperature,
			ConditionCode: s.ConditionCode,
		})
	}
	return points
}

func (a *Aggregator) dailyView(samples []Sample) []DailySummary {
	// Grouping is by calendar-date key, not positional runs, so a date that
	// reappears later in the series still lands in its group.
	groups := make(map[time.Time]*DailySummary)
	first := make(map[time.Time]time.Time) // earliest sample per day, for the condition tie-break
	peak := make(map[time.Time]float64)

	for _, s := range samples {
		day := a.dayOf(s.Timestamp)
		summary, ok := groups[day]
		if !ok {
			groups[day] = &DailySummary{
				Date:           day,
				Label:          formatDayLabel(day),
				ConditionCode:  s.ConditionCode,
				MinTemperature: s.TemperatureMin,
				MaxTemperature: s.TemperatureMax,
			}
			first[day] = s.Timestamp
			peak[day] = s.PrecipProbability
			continue
		}
		if s.TemperatureMin < summary.MinTemperature {
			summary.MinTemperature = s.TemperatureMin
		}
		if s.TemperatureMax > summary.MaxTemperature {
			summary.MaxTemperature = s.TemperatureMax
		}
		if s.PrecipProbability > peak[day] {
			peak[day] = s.PrecipProbability
		}
		if s.Timestamp.Before(first[day]) {
			first[day] = s.Timestamp
			summary.ConditionCode = s.ConditionCode
		}
	}

	days := make([]time.Time, 0, len(groups))
	for day := range groups {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	if len(days) > maxDailySummaries {
		days = days[:maxDailySummaries]
	}

	summaries := make([]DailySummary, 0, len(days))
	for _, day := range days {
		summary := *groups[day]
		summary.PrecipitationChance = clampPercent(math.Round(peak[day] * 100))
		summaries = append(summaries, summary)
	}
	return summaries
}

// dayOf truncates a timestamp to its calendar date in the aggregator's zone.
func (a *Aggregator) dayOf(ts time.Time) time.Time {
	year, month, day := ts.In(a.loc).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, a.loc)
}

// formatDayLabel renders the "M.D (Dow)" label used by the forecast list.
func formatDayLabel(day time.Time) string {
	return fmt.Sprintf("%d.%d (%s)", int(day.Month()), day.Day(), day.Format("Mon"))
}

func clampPercent(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return int(v)
	}
}
