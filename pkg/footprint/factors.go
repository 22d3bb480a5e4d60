// Package footprint implements the personal carbon footprint model:
// annualization of activity inputs, per-category emission aggregation,
// and comparison against national per-capita averages.
package footprint

import "fmt"

// Category identifies one of the four emission categories.
type Category string

const (
	CategoryTransport   Category = "transport"
	CategoryElectricity Category = "electricity"
	CategoryDiet        Category = "diet"
	CategoryWaste       Category = "waste"
)

// Categories lists all categories in the fixed comparison order.
// DominantCategory breaks ties by this order, first wins.
var Categories = []Category{
	CategoryTransport,
	CategoryElectricity,
	CategoryDiet,
	CategoryWaste,
}

// EmissionFactors holds the per-unit CO2 factors for one country.
// Units: Transport kgCO2/km, Electricity kgCO2/kWh, Diet kgCO2/meal,
// Waste kgCO2/kg.
type EmissionFactors struct {
	Transport   float64 `json:"transport"`
	Electricity float64 `json:"electricity"`
	Diet        float64 `json:"diet"`
	Waste       float64 `json:"waste"`
}

// FactorTable maps a country code to its emission factors.
// Built once at process start and never mutated.
type FactorTable map[string]EmissionFactors

// AverageTable maps a country code to its per-capita average footprint
// in tonnes CO2 per year.
type AverageTable map[string]float64

// DefaultCountry is used when a caller does not specify a country.
const DefaultCountry = "MY"

// defaultFactors carries the grid/transport/diet/waste intensities per
// country. Malaysia's figures match the source data this model was
// calibrated against.
var defaultFactors = FactorTable{
	"MY": {Transport: 0.14, Electricity: 0.82, Diet: 1.25, Waste: 0.10},
	"SG": {Transport: 0.12, Electricity: 0.41, Diet: 1.25, Waste: 0.10},
	"ID": {Transport: 0.14, Electricity: 0.76, Diet: 1.10, Waste: 0.10},
	"TH": {Transport: 0.13, Electricity: 0.50, Diet: 1.15, Waste: 0.10},
	"US": {Transport: 0.17, Electricity: 0.39, Diet: 1.60, Waste: 0.12},
	"GB": {Transport: 0.15, Electricity: 0.21, Diet: 1.30, Waste: 0.10},
}

// defaultAverages holds national per-capita averages in tonnes CO2/year
// (World Bank 2021).
var defaultAverages = AverageTable{
	"MY": 7.7,
	"SG": 8.9,
	"ID": 2.3,
	"TH": 3.8,
	"US": 14.9,
	"GB": 4.9,
}

// DefaultFactorTable returns a copy of the built-in factor table so a
// caller can hold it as immutable configuration.
func DefaultFactorTable() FactorTable {
	t := make(FactorTable, len(defaultFactors))
	for k, v := range defaultFactors {
		t[k] = v
	}
	return t
}

// DefaultAverageTable returns a copy of the built-in national averages.
func DefaultAverageTable() AverageTable {
	t := make(AverageTable, len(defaultAverages))
	for k, v := range defaultAverages {
		t[k] = v
	}
	return t
}

// FactorsFor looks up the emission factors for a country code.
func (t FactorTable) FactorsFor(country string) (EmissionFactors, error) {
	f, ok := t[country]
	if !ok {
		return EmissionFactors{}, fmt.Errorf("no emission factors for country %q", country)
	}
	return f, nil
}

// AverageFor looks up the national average for a country code. Unknown
// countries fall back to the default country's figure, matching the
// lookup behavior of the source data.
func (t AverageTable) AverageFor(country string) float64 {
	if avg, ok := t[country]; ok {
		return avg
	}
	return t[DefaultCountry]
}

// Countries returns the country codes present in the factor table.
func (t FactorTable) Countries() []string {
	codes := make([]string, 0, len(t))
	for k := range t {
		codes = append(codes, k)
	}
	return codes
}
