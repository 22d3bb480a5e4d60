package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/ecotrace/carbonmcp/pkg/core"
	"github.com/ecotrace/carbonmcp/pkg/footprint"
	"github.com/ecotrace/carbonmcp/pkg/geo"
	"github.com/ecotrace/carbonmcp/pkg/monitoring"
)

// AnalyzeCommuteFootprintInput combines commute endpoints with the
// remaining activity inputs for a full analysis in one call.
type AnalyzeCommuteFootprintInput struct {
	Home string `json:"home"`
	Work string `json:"work"`

	WorkDaysPerYear        int     `json:"work_days_per_year"`
	ElectricityKWhPerMonth float64 `json:"electricity_kwh_per_month"`
	WasteKgPerWeek         float64 `json:"waste_kg_per_week"`
	MealsPerDay            int     `json:"meals_per_day"`
	Country                string  `json:"country,omitempty"`
}

// AnalyzeCommuteFootprintOutput is the combined analysis result
type AnalyzeCommuteFootprintOutput struct {
	Home             *ResolvedLocation        `json:"home"`
	Work             *ResolvedLocation        `json:"work"`
	Distance         core.DistanceEstimate    `json:"distance"`
	Country          string                   `json:"country"`
	Report           footprint.EmissionReport `json:"report"`
	Comparison       footprint.Comparison     `json:"comparison"`
	DominantCategory footprint.Category       `json:"dominant_category"`
	Tips             []string                 `json:"tips"`
	MapURL           string                   `json:"map_url"`
	Bounds           geo.BoundingBox          `json:"bounds"`
	Note             string                   `json:"note,omitempty"`
}

// AnalyzeCommuteFootprintTool returns a tool definition for full commute analysis
func AnalyzeCommuteFootprintTool() mcp.Tool {
	return mcp.NewTool("analyze_commute_footprint",
		mcp.WithDescription("Resolve home and work locations, estimate the commute distance and produce a full footprint report with national average comparison and reduction tips"),
		mcp.WithString("home",
			mcp.Required(),
			mcp.Description("Home location: address, place name or coordinate string"),
		),
		mcp.WithString("work",
			mcp.Required(),
			mcp.Description("Workplace location: address, place name or coordinate string"),
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
			mcp.Description("Two-letter country code for emission factors and averages (default MY)"),
		),
	)
}

// commuteBounds returns the geographic area covering both commute
// endpoints, for callers that want to frame the commute on a map.
func commuteBounds(home, work geo.Location) *geo.BoundingBox {
	box := geo.NewBoundingBox()
	box.ExtendWithPoint(home.Latitude, home.Longitude)
	box.ExtendWithPoint(work.Latitude, work.Longitude)
	return box
}

// commuteMapURL builds an OpenStreetMap directions link between the
// two endpoints, centered on the middle of the commute area.
func commuteMapURL(home, work geo.Location) string {
	center := commuteBounds(home, work).Center()
	return fmt.Sprintf("https://www.openstreetmap.org/directions?from=%.6f,%.6f&to=%.6f,%.6f#map=12/%.4f/%.4f",
		home.Latitude, home.Longitude, work.Latitude, work.Longitude,
		center.Latitude, center.Longitude)
}

// HandleAnalyzeCommuteFootprint implements the combined commute and footprint analysis
func HandleAnalyzeCommuteFootprint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return WithParsedInput("analyze_commute_footprint", func(ctx context.Context, input AnalyzeCommuteFootprintInput, logger *slog.Logger) (interface{}, error) {
		// Resolve both endpoints concurrently; geocoding dominates latency
		var home, work *ResolvedLocation
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			home, err = ResolveLocation(gctx, geoClient, input.Home)
			if err != nil {
				return fmt.Errorf("failed to resolve home location: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			var err error
			work, err = ResolveLocation(gctx, geoClient, input.Work)
			if err != nil {
				return fmt.Errorf("failed to resolve work location: %w", err)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		estimate := core.EstimateDistance(ctx, home.Location, work.Location, estimatorOptions())
		monitoring.RecordDistanceEstimate(string(estimate.Method))

		result, err := computeFootprint(CalculateFootprintInput{
			ActivityInputs: footprint.ActivityInputs{
				DistanceKm:             estimate.Km,
				WorkDaysPerYear:        input.WorkDaysPerYear,
				ElectricityKWhPerMonth: input.ElectricityKWhPerMonth,
				WasteKgPerWeek:         input.WasteKgPerWeek,
				MealsPerDay:            input.MealsPerDay,
			},
			Country: input.Country,
		}, logger)
		if err != nil {
			return nil, err
		}

		comparison := footprint.Compare(result.Report.Total, result.Country, footprint.DefaultAverageTable())

		output := AnalyzeCommuteFootprintOutput{
			Home:             home,
			Work:             work,
			Distance:         estimate,
			Country:          result.Country,
			Report:           result.Report,
			Comparison:       comparison,
			DominantCategory: result.DominantCategory,
			Tips:             footprint.TipsFor(result.DominantCategory),
			MapURL:           commuteMapURL(home.Location, work.Location),
			Bounds:           *commuteBounds(home.Location, work.Location),
		}
		if estimate.Method == core.DistanceMethodHaversine {
			output.Note = GuidanceOSRMRouteNotFound
		}
		return output, nil
	})(ctx, req)
}
