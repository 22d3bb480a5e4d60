package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ecotrace/carbonmcp/pkg/footprint"
)

// CalculateFootprintInput defines the activity inputs for a footprint calculation
type CalculateFootprintInput struct {
	footprint.ActivityInputs

	// Country selects the emission factor set, default MY
	Country string `json:"country,omitempty"`
}

// CalculateFootprintOutput is the computed footprint report
type CalculateFootprintOutput struct {
	Country          string                   `json:"country"`
	Report           footprint.EmissionReport `json:"report"`
	DominantCategory footprint.Category       `json:"dominant_category"`
}

// CalculateFootprintTool returns a tool definition for footprint calculation
func CalculateFootprintTool() mcp.Tool {
	return mcp.NewTool("calculate_footprint",
		mcp.WithDescription("Calculate a personal annual carbon footprint from commute, electricity, diet and waste activity"),
		mcp.WithNumber("distance_km",
			mcp.Description("One-way commute distance in kilometers"),
		),
		mcp.WithNumber("work_days_per_year",
			mcp.Required(),
			mcp.Description("Number of commuting days per year (1-365)"),
		),
		mcp.WithNumber("electricity_kwh_per_month",
			mcp.Required(),
			mcp.Description("Household electricity use in kWh per month"),
		),
		mcp.WithNumber("waste_kg_per_week",
			mcp.Required(),
			mcp.Description("Waste generated in kg per week"),
		),
		mcp.WithNumber("meals_per_day",
			mcp.Required(),
			mcp.Description("Meals eaten per day (1-10)"),
		),
		mcp.WithString("country",
			mcp.Description("Two-letter country code for emission factors (default MY)"),
		),
	)
}

// HandleCalculateFootprint implements footprint calculation
func HandleCalculateFootprint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return WithParsedInput("calculate_footprint", func(ctx context.Context, input CalculateFootprintInput, logger *slog.Logger) (interface{}, error) {
		return computeFootprint(input, logger)
	})(ctx, req)
}

// computeFootprint validates inputs, resolves factors and builds the report
func computeFootprint(input CalculateFootprintInput, logger *slog.Logger) (*CalculateFootprintOutput, error) {
	if err := footprint.ValidateInputs(input.ActivityInputs); err != nil {
		return nil, fmt.Errorf("%w. %s", err, GuidanceActivityInputs)
	}

	country := input.Country
	if country == "" {
		country = footprint.DefaultCountry
	}

	factors, err := footprint.DefaultFactorTable().FactorsFor(country)
	if err != nil {
		return nil, fmt.Errorf("%w. %s", err, GuidanceCountryCode)
	}

	report := footprint.Compute(input.ActivityInputs, factors)

	logger.Info("footprint calculated",
		"country", country,
		"total_tonnes", report.Total,
	)

	return &CalculateFootprintOutput{
		Country:          country,
		Report:           report,
		DominantCategory: footprint.DominantCategory(report),
	}, nil
}

// CompareFootprintInput defines the input for national average comparison
type CompareFootprintInput struct {
	TotalTonnes float64 `json:"total_tonnes"`
	Country     string  `json:"country,omitempty"`
}

// CompareFootprintTool returns a tool definition for footprint comparison
func CompareFootprintTool() mcp.Tool {
	return mcp.NewTool("compare_footprint",
		mcp.WithDescription("Compare an annual footprint total against a country's per-capita average"),
		mcp.WithNumber("total_tonnes",
			mcp.Required(),
			mcp.Description("Annual footprint total in tonnes CO2"),
		),
		mcp.WithString("country",
			mcp.Description("Two-letter country code (default MY)"),
		),
	)
}

// HandleCompareFootprint implements footprint comparison
func HandleCompareFootprint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return WithParsedInput("compare_footprint", func(ctx context.Context, input CompareFootprintInput, logger *slog.Logger) (interface{}, error) {
		if input.TotalTonnes < 0 {
			return nil, fmt.Errorf("total_tonnes must not be negative, got %f", input.TotalTonnes)
		}

		country := input.Country
		if country == "" {
			country = footprint.DefaultCountry
		}

		return footprint.Compare(input.TotalTonnes, country, footprint.DefaultAverageTable()), nil
	})(ctx, req)
}

// FootprintTipsInput carries the per-category values from an emission report
type FootprintTipsInput struct {
	Transport   float64 `json:"transport"`
	Electricity float64 `json:"electricity"`
	Diet        float64 `json:"diet"`
	Waste       float64 `json:"waste"`
}

// FootprintTipsOutput is the dominant category and its reduction tips
type FootprintTipsOutput struct {
	DominantCategory footprint.Category `json:"dominant_category"`
	Tips             []string           `json:"tips"`
}

// FootprintTipsTool returns a tool definition for reduction tips
func FootprintTipsTool() mcp.Tool {
	return mcp.NewTool("footprint_tips",
		mcp.WithDescription("Get reduction tips targeted at the dominant emission category of a footprint report"),
		mcp.WithNumber("transport",
			mcp.Description("Transport emissions in tonnes CO2/year"),
		),
		mcp.WithNumber("electricity",
			mcp.Description("Electricity emissions in tonnes CO2/year"),
		),
		mcp.WithNumber("diet",
			mcp.Description("Diet emissions in tonnes CO2/year"),
		),
		mcp.WithNumber("waste",
			mcp.Description("Waste emissions in tonnes CO2/year"),
		),
	)
}

// HandleFootprintTips implements reduction tip lookup
func HandleFootprintTips(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return WithParsedInput("footprint_tips", func(ctx context.Context, input FootprintTipsInput, logger *slog.Logger) (interface{}, error) {
		for name, v := range map[string]float64{
			"transport":   input.Transport,
			"electricity": input.Electricity,
			"diet":        input.Diet,
			"waste":       input.Waste,
		} {
			if v < 0 {
				return nil, fmt.Errorf("%s must not be negative, got %f", name, v)
			}
		}

		report := footprint.EmissionReport{
			Transport:   input.Transport,
			Electricity: input.Electricity,
			Diet:        input.Diet,
			Waste:       input.Waste,
		}

		dominant := footprint.DominantCategory(report)

		return FootprintTipsOutput{
			DominantCategory: dominant,
			Tips:             footprint.TipsFor(dominant),
		}, nil
	})(ctx, req)
}
