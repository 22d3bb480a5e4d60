package tools

import (
	"context"
	"log/slog"
	"testing"
)

func TestRegistryToolDefinitions(t *testing.T) {
	r := NewRegistry(slog.Default())
	defs := r.GetToolDefinitions()

	want := []string{
		"get_version",
		"geocode_address",
		"reverse_geocode",
		"geo_distance",
		"estimate_commute_distance",
		"calculate_footprint",
		"compare_footprint",
		"footprint_tips",
		"analyze_commute_footprint",
		"get_map_image",
	}

	if len(defs) != len(want) {
		t.Fatalf("got %d tool definitions, want %d", len(defs), len(want))
	}

	seen := make(map[string]bool)
	for i, def := range defs {
		if def.Name != want[i] {
			t.Errorf("tool %d = %q, want %q", i, def.Name, want[i])
		}
		if seen[def.Name] {
			t.Errorf("duplicate tool name %q", def.Name)
		}
		seen[def.Name] = true

		if def.Tool.Name != def.Name {
			t.Errorf("tool %q definition name mismatch: %q", def.Name, def.Tool.Name)
		}
		if def.Description == "" {
			t.Errorf("tool %q has no description", def.Name)
		}
		if def.Handler == nil {
			t.Errorf("tool %q has no handler", def.Name)
		}
	}
}

func TestRegistryGetToolNames(t *testing.T) {
	r := NewRegistry(slog.Default())
	names := r.GetToolNames()
	if len(names) != len(r.GetToolDefinitions()) {
		t.Errorf("GetToolNames returned %d names, want %d", len(names), len(r.GetToolDefinitions()))
	}
}

func TestWrapWithTracingPassesThrough(t *testing.T) {
	r := NewRegistry(slog.Default())

	wrapped := r.wrapWithTracing("get_version", HandleGetVersion)

	result, err := wrapped(context.Background(), newToolRequest("get_version", nil))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	AssertSuccessResult(t, result, "Expected success result")

	var info VersionInfo
	if err := ParseResultJSON(result, &info); err != nil {
		t.Fatalf("Failed to unmarshal result: %v", err)
	}
	if info.Version == "" {
		t.Error("expected a version string")
	}
}
