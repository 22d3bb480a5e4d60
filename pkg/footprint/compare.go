package footprint

import "math"

// Comparison relates a computed total to a national per-capita average.
type Comparison struct {
	// Country is the country code the average was looked up for
	Country string `json:"country"`

	// Average is the national per-capita average in tonnes CO2/year
	Average float64 `json:"average"`

	// PercentDiff is (total - average) / average * 100, signed
	PercentDiff float64 `json:"percent_diff"`

	// Higher is true when the total exceeds the average
	Higher bool `json:"higher"`

	// BarPercent is |PercentDiff| clamped to [0, 100], sized for a
	// progress-bar style display
	BarPercent float64 `json:"bar_percent"`
}

// PercentageDifference returns the signed percentage by which total
// deviates from reference.
func PercentageDifference(total, reference float64) float64 {
	return (total - reference) / reference * 100
}

// Compare builds a Comparison of the given total against a country's
// national average.
func Compare(total float64, country string, averages AverageTable) Comparison {
	avg := averages.AverageFor(country)
	diff := PercentageDifference(total, avg)

	return Comparison{
		Country:     country,
		Average:     avg,
		PercentDiff: diff,
		Higher:      total > avg,
		BarPercent:  math.Min(math.Abs(diff), 100),
	}
}

// DominantCategory returns the category with the largest value in the
// report. Ties go to the earlier category in the fixed order transport,
// electricity, diet, waste.
func DominantCategory(r EmissionReport) Category {
	dominant := Categories[0]
	max := r.CategoryValue(dominant)

	for _, c := range Categories[1:] {
		if v := r.CategoryValue(c); v > max {
			dominant = c
			max = v
		}
	}
	return dominant
}
