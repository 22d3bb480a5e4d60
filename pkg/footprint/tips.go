package footprint

// tipsByCategory holds the advisory text shown for each dominant
// emission category. Selection is a plain table lookup.
var tipsByCategory = map[Category][]string{
	CategoryTransport: {
		"Consider carpooling or public transport for your commute",
		"Combine errands into fewer trips",
		"Walk or cycle for short distances",
		"If replacing your car, consider a hybrid or electric vehicle",
	},
	CategoryElectricity: {
		"Switch to LED lighting throughout your home",
		"Set air conditioning a few degrees higher",
		"Unplug devices instead of leaving them on standby",
		"Look into rooftop solar or a green electricity plan",
	},
	CategoryDiet: {
		"Replace some meat-based meals with plant-based options",
		"Buy local and seasonal produce where possible",
		"Plan meals ahead to reduce food waste",
	},
	CategoryWaste: {
		"Separate and recycle paper, plastic, glass and metal",
		"Compost food scraps instead of binning them",
		"Choose products with minimal packaging",
	},
}

// TipsFor returns the advisory strings for a category. The returned
// slice is a copy, callers may reorder it freely.
func TipsFor(c Category) []string {
	tips := tipsByCategory[c]
	out := make([]string, len(tips))
	copy(out, tips)
	return out
}
