package gnaf

// GeocodeMethod records how an address point was derived.
type GeocodeMethod string

const (
	MethodParcel       GeocodeMethod = "PROPERTY_CENTROID"
	MethodBuilding     GeocodeMethod = "BUILDING_CENTROID"
	MethodFrontage     GeocodeMethod = "FRONTAGE_CENTRE"
	MethodStreetLocal  GeocodeMethod = "STREET_LOCALITY"
	MethodLocality     GeocodeMethod = "LOCALITY_CENTROID"
	MethodInterpolated GeocodeMethod = "INTERPOLATED"
)

// Confidence is an ordinal quality band for a geocode. The ordering of
// bands is policy, not data, so it lives in config rather than here.
type Confidence string

const (
	ConfidenceNone     Confidence = "none"
	ConfidenceLow      Confidence = "low"
	ConfidenceMedium   Confidence = "medium"
	ConfidenceHigh     Confidence = "high"
	ConfidenceVeryHigh Confidence = "very-high"
)

// Ranking compares confidence bands according to a configured order,
// lowest first. Unknown bands rank below every known one.
type Ranking struct {
	rank map[Confidence]int
}

// NewRanking builds a Ranking from an ordered band list, lowest first.
func NewRanking(order []string) Ranking {
	r := Ranking{rank: make(map[Confidence]int, len(order))}
	for i, band := range order {
		r.rank[Confidence(band)] = i + 1
	}
	return r
}

// Rank returns the ordinal position of a band, 0 for unknown bands.
func (r Ranking) Rank(c Confidence) int {
	return r.rank[c]
}

// AtLeast reports whether c ranks at or above the threshold band.
func (r Ranking) AtLeast(c, threshold Confidence) bool {
	return r.rank[c] >= r.rank[threshold]
}

// AtOrAbove returns every configured band ranking at or above threshold,
// for pushing a confidence floor into SQL.
func (r Ranking) AtOrAbove(threshold Confidence) []string {
	min := r.rank[threshold]
	var bands []string
	for band, pos := range r.rank {
		if pos >= min {
			bands = append(bands, string(band))
		}
	}
	return bands
}

// Known reports whether the band appears in the configured order.
func (r Ranking) Known(c Confidence) bool {
	_, ok := r.rank[c]
	return ok
}
