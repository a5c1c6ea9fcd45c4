package gnaf

import "testing"

func intp(n int) *int { return &n }

func TestFullAddressAssembly(t *testing.T) {
	a := Address{
		FlatType:    "UNIT",
		FlatNumber:  "2",
		NumberFirst: intp(14),
		StreetName:  "BLUEGUM",
		StreetType:  "CRESCENT",
		Locality:    "KIRRAWEE",
		State:       "NSW",
		Postcode:    "2232",
	}

	want := "UNIT 2 14 BLUEGUM CRESCENT KIRRAWEE NSW 2232"
	if got := a.FullAddress(); got != want {
		t.Errorf("FullAddress() = %q, want %q", got, want)
	}
}

func TestFullAddressRangedNumber(t *testing.T) {
	a := Address{
		NumberFirst: intp(12),
		NumberLast:  intp(16),
		StreetName:  "HIGH",
		StreetType:  "STREET",
		Locality:    "PENRITH",
		State:       "NSW",
		Postcode:    "2750",
	}

	want := "12-16 HIGH STREET PENRITH NSW 2750"
	if got := a.FullAddress(); got != want {
		t.Errorf("FullAddress() = %q, want %q", got, want)
	}
}

func TestFullAddressSuffixes(t *testing.T) {
	a := Address{
		NumberFirst:       intp(3),
		NumberFirstSuffix: "A",
		StreetName:        "PARK",
		StreetType:        "ROAD",
		Locality:          "CARLTON",
		State:             "VIC",
		Postcode:          "3053",
	}

	want := "3A PARK ROAD CARLTON VIC 3053"
	if got := a.FullAddress(); got != want {
		t.Errorf("FullAddress() = %q, want %q", got, want)
	}
}

func TestFullAddressSparseComponents(t *testing.T) {
	// Street-locality geocodes carry no number at all.
	a := Address{
		StreetName: "EPPING",
		StreetType: "ROAD",
		Locality:   "MACQUARIE PARK",
		State:      "NSW",
		Postcode:   "2113",
	}

	want := "EPPING ROAD MACQUARIE PARK NSW 2113"
	if got := a.FullAddress(); got != want {
		t.Errorf("FullAddress() = %q, want %q", got, want)
	}
}

func TestGeocodedRequiresBothCoordinates(t *testing.T) {
	lat := -33.8688
	if (Address{Latitude: &lat}).Geocoded() {
		t.Error("address with only a latitude should not count as geocoded")
	}
	lng := 151.2093
	if !(Address{Latitude: &lat, Longitude: &lng}).Geocoded() {
		t.Error("address with both coordinates should count as geocoded")
	}
}

func TestRankingOrder(t *testing.T) {
	r := NewRanking([]string{"none", "low", "medium", "high", "very-high"})

	if !r.AtLeast(ConfidenceHigh, ConfidenceMedium) {
		t.Error("high should rank at least medium")
	}
	if r.AtLeast(ConfidenceLow, ConfidenceMedium) {
		t.Error("low should not rank at least medium")
	}
	if !r.AtLeast(ConfidenceMedium, ConfidenceMedium) {
		t.Error("a band should rank at least itself")
	}
	if r.Known("bogus") {
		t.Error("unknown band should not be known")
	}
}

func TestRankingAtOrAbove(t *testing.T) {
	r := NewRanking([]string{"none", "low", "medium", "high", "very-high"})

	bands := r.AtOrAbove(ConfidenceHigh)
	if len(bands) != 2 {
		t.Fatalf("expected 2 bands at or above high, got %v", bands)
	}
	seen := map[string]bool{}
	for _, b := range bands {
		seen[b] = true
	}
	if !seen["high"] || !seen["very-high"] {
		t.Errorf("expected high and very-high, got %v", bands)
	}
}
