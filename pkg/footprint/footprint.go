package footprint

import "math"

// Annualization multipliers. Raw inputs are collected as daily, weekly or
// monthly quantities and scaled to a full year before factors are applied.
const (
	MonthsPerYear = 12
	WeeksPerYear  = 52
	DaysPerYear   = 365

	// A commute is counted both ways
	RoundTrip = 2
)

// ActivityInputs holds the raw activity quantities for one calculation.
// Values are validated at the input boundary; the aggregation itself
// assumes well-formed input.
type ActivityInputs struct {
	// DistanceKm is the one-way home-to-work commute distance in km
	DistanceKm float64 `json:"distance_km"`

	// WorkDaysPerYear is the number of commuting days, 1..365
	WorkDaysPerYear int `json:"work_days_per_year"`

	// ElectricityKWhPerMonth is the household electricity use in kWh
	ElectricityKWhPerMonth float64 `json:"electricity_kwh_per_month"`

	// WasteKgPerWeek is the waste generated in kg
	WasteKgPerWeek float64 `json:"waste_kg_per_week"`

	// MealsPerDay is the number of meals eaten, 1..10
	MealsPerDay int `json:"meals_per_day"`
}

// EmissionReport holds the computed footprint in tonnes CO2 per year.
// Each category is rounded to two decimal places and Total is the sum of
// the rounded categories, so Total always equals its parts exactly.
type EmissionReport struct {
	Transport   float64 `json:"transport"`
	Electricity float64 `json:"electricity"`
	Diet        float64 `json:"diet"`
	Waste       float64 `json:"waste"`
	Total       float64 `json:"total"`
	Unit        string  `json:"unit"`
}

// ReportUnit is the unit of every EmissionReport value.
const ReportUnit = "tonnes CO2/year"

// round2 rounds to two decimal places, the display precision of the report.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Annualized returns the yearly activity quantities derived from the raw
// inputs: commute km x2 x work days, electricity x12, meals x365, waste x52.
type Annualized struct {
	DistanceKm     float64
	ElectricityKWh float64
	Meals          float64
	WasteKg        float64
}

// Annualize scales the raw inputs to yearly quantities.
func Annualize(in ActivityInputs) Annualized {
	return Annualized{
		DistanceKm:     in.DistanceKm * RoundTrip * float64(in.WorkDaysPerYear),
		ElectricityKWh: in.ElectricityKWhPerMonth * MonthsPerYear,
		Meals:          float64(in.MealsPerDay) * DaysPerYear,
		WasteKg:        in.WasteKgPerWeek * WeeksPerYear,
	}
}

// Compute aggregates annual emissions for the given inputs and factors.
// Pure function: no validation, no side effects.
func Compute(in ActivityInputs, factors EmissionFactors) EmissionReport {
	yearly := Annualize(in)

	// kg -> tonnes, rounded per category before summing
	transport := round2(yearly.DistanceKm * factors.Transport / 1000)
	electricity := round2(yearly.ElectricityKWh * factors.Electricity / 1000)
	diet := round2(yearly.Meals * factors.Diet / 1000)
	waste := round2(yearly.WasteKg * factors.Waste / 1000)

	return EmissionReport{
		Transport:   transport,
		Electricity: electricity,
		Diet:        diet,
		Waste:       waste,
		Total:       round2(transport + electricity + diet + waste),
		Unit:        ReportUnit,
	}
}

// CategoryValue returns the report value for a category.
func (r EmissionReport) CategoryValue(c Category) float64 {
	switch c {
	case CategoryTransport:
		return r.Transport
	case CategoryElectricity:
		return r.Electricity
	case CategoryDiet:
		return r.Diet
	case CategoryWaste:
		return r.Waste
	default:
		return 0
	}
}

// ValidateInputs checks the declared ranges for each activity input. This
// is the input-collection boundary check; Compute itself trusts its input.
func ValidateInputs(in ActivityInputs) error {
	if in.DistanceKm < 0 {
		return &InputError{Field: "distance_km", Reason: "must not be negative"}
	}
	if in.WorkDaysPerYear < 1 || in.WorkDaysPerYear > 365 {
		return &InputError{Field: "work_days_per_year", Reason: "must be between 1 and 365"}
	}
	if in.ElectricityKWhPerMonth < 0 {
		return &InputError{Field: "electricity_kwh_per_month", Reason: "must not be negative"}
	}
	if in.WasteKgPerWeek < 0 {
		return &InputError{Field: "waste_kg_per_week", Reason: "must not be negative"}
	}
	if in.MealsPerDay < 1 || in.MealsPerDay > 10 {
		return &InputError{Field: "meals_per_day", Reason: "must be between 1 and 10"}
	}
	return nil
}

// InputError describes an out-of-range activity input.
type InputError struct {
	Field  string
	Reason string
}

// Error implements the error interface
func (e *InputError) Error() string {
	return e.Field + " " + e.Reason
}
