package tools

import (
	"context"
	"math"
	"net/http"
	"strings"
	"testing"

	"github.com/ecotrace/carbonmcp/pkg/core"
	"github.com/ecotrace/carbonmcp/pkg/footprint"
	"github.com/ecotrace/carbonmcp/pkg/geo"
)

func TestHandleAnalyzeCommuteFootprint(t *testing.T) {
	withoutNominatim(t)

	withMockRouting(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(mockOSRMResponse(10000)))
	})

	req := newToolRequest("analyze_commute_footprint", map[string]any{
		"home":                      "Yayasan Selangor",
		"work":                      "3.2501, 101.7501",
		"work_days_per_year":        230,
		"electricity_kwh_per_month": 200,
		"waste_kg_per_week":         5,
		"meals_per_day":             3,
	})

	result, err := HandleAnalyzeCommuteFootprint(context.Background(), req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	AssertSuccessResult(t, result, "Expected success result")

	var output AnalyzeCommuteFootprintOutput
	if err := ParseResultJSON(result, &output); err != nil {
		t.Fatalf("Failed to unmarshal result: %v", err)
	}

	if output.Home == nil || output.Home.Source != "geocode" {
		t.Errorf("home = %+v, want geocode source", output.Home)
	}
	if output.Work == nil || output.Work.Source != "coordinates" {
		t.Errorf("work = %+v, want coordinates source", output.Work)
	}
	if output.Distance.Method != core.DistanceMethodRoute {
		t.Errorf("distance method = %q, want route", output.Distance.Method)
	}
	if output.Distance.Km != 10 {
		t.Errorf("distance km = %f, want 10", output.Distance.Km)
	}
	if output.Country != "MY" {
		t.Errorf("country = %q, want MY", output.Country)
	}

	wantReport := footprint.EmissionReport{
		Transport:   0.64,
		Electricity: 1.97,
		Diet:        1.37,
		Waste:       0.03,
		Total:       4.01,
		Unit:        footprint.ReportUnit,
	}
	if output.Report != wantReport {
		t.Errorf("report = %+v, want %+v", output.Report, wantReport)
	}
	if output.DominantCategory != footprint.CategoryElectricity {
		t.Errorf("dominant category = %q, want electricity", output.DominantCategory)
	}
	if len(output.Tips) == 0 {
		t.Error("expected reduction tips")
	}
	if !strings.HasPrefix(output.MapURL, "https://www.openstreetmap.org/directions?") {
		t.Errorf("unexpected map URL %q", output.MapURL)
	}
	if !strings.Contains(output.MapURL, "#map=") {
		t.Errorf("map URL %q carries no center fragment", output.MapURL)
	}
	if output.Note != "" {
		t.Errorf("note = %q, want none for a routed estimate", output.Note)
	}

	// Bounds must cover the resolved home (Yayasan Selangor) and work
	wantBounds := geo.BoundingBox{MinLat: 3.1073, MinLon: 101.6409, MaxLat: 3.2501, MaxLon: 101.7501}
	if output.Bounds != wantBounds {
		t.Errorf("bounds = %+v, want %+v", output.Bounds, wantBounds)
	}

	if output.Comparison.Average != 7.7 {
		t.Errorf("comparison average = %f, want 7.7", output.Comparison.Average)
	}
	if output.Comparison.Higher {
		t.Error("4.01 tonnes should be below the national average")
	}
	wantDiff := (4.01 - 7.7) / 7.7 * 100
	if math.Abs(output.Comparison.PercentDiff-wantDiff) > 1e-9 {
		t.Errorf("percent diff = %f, want %f", output.Comparison.PercentDiff, wantDiff)
	}
}

func TestHandleAnalyzeCommuteFootprintFallbackDistance(t *testing.T) {
	withoutNominatim(t)

	withMockRouting(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	req := newToolRequest("analyze_commute_footprint", map[string]any{
		"home":                      "3.6001, 102.1001",
		"work":                      "3.7001, 102.2001",
		"work_days_per_year":        230,
		"electricity_kwh_per_month": 200,
		"waste_kg_per_week":         5,
		"meals_per_day":             3,
	})

	result, err := HandleAnalyzeCommuteFootprint(context.Background(), req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	AssertSuccessResult(t, result, "Expected success result with fallback distance")

	var output AnalyzeCommuteFootprintOutput
	if err := ParseResultJSON(result, &output); err != nil {
		t.Fatalf("Failed to unmarshal result: %v", err)
	}

	if output.Distance.Method != core.DistanceMethodHaversine {
		t.Errorf("distance method = %q, want haversine", output.Distance.Method)
	}
	if output.Distance.Km <= 0 {
		t.Errorf("fallback distance = %f, want > 0", output.Distance.Km)
	}
	if output.Report.Total <= 0 {
		t.Errorf("report total = %f, want > 0", output.Report.Total)
	}
	if output.Note != GuidanceOSRMRouteNotFound {
		t.Errorf("note = %q, want the straight-line fallback note", output.Note)
	}
}

func TestHandleAnalyzeCommuteFootprintErrors(t *testing.T) {
	withoutNominatim(t)

	withMockRouting(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(mockOSRMResponse(10000)))
	})

	tests := []struct {
		name string
		args map[string]any
	}{
		{
			name: "unresolvable home",
			args: map[string]any{
				"home":                      "",
				"work":                      "3.2501, 101.7501",
				"work_days_per_year":        230,
				"electricity_kwh_per_month": 200,
				"waste_kg_per_week":         5,
				"meals_per_day":             3,
			},
		},
		{
			name: "invalid activity inputs",
			args: map[string]any{
				"home":                      "3.8001, 102.3001",
				"work":                      "3.9001, 102.4001",
				"work_days_per_year":        0,
				"electricity_kwh_per_month": 200,
				"waste_kg_per_week":         5,
				"meals_per_day":             3,
			},
		},
		{
			name: "unknown country",
			args: map[string]any{
				"home":                      "4.0001, 102.5001",
				"work":                      "4.1001, 102.6001",
				"work_days_per_year":        230,
				"electricity_kwh_per_month": 200,
				"waste_kg_per_week":         5,
				"meals_per_day":             3,
				"country":                   "ZZ",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := HandleAnalyzeCommuteFootprint(context.Background(), newToolRequest("analyze_commute_footprint", tt.args))
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			AssertErrorResult(t, result, "Expected error result, but got success")
		})
	}
}
