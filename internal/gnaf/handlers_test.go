package gnaf

import (
	"net/http/httptest"
	"testing"
)

func TestLooksLikeCoordinates(t *testing.T) {
	coordLike := []string{
		"-33.8688,151.2093",
		"-33.8688, 151.2093",
		" -33 , 151 ",
	}
	for _, s := range coordLike {
		if !looksLikeCoordinates(s) {
			t.Errorf("expected %q to be flagged as a coordinate pair", s)
		}
	}

	addresses := []string{
		"BLUEGUM CRESCENT",
		"2232",
		"14 HIGH ST",
		"O'CONNELL",
	}
	for _, s := range addresses {
		if looksLikeCoordinates(s) {
			t.Errorf("expected %q not to be flagged as a coordinate pair", s)
		}
	}
}

func TestFiltersFromQueryRejectsCoordinatePair(t *testing.T) {
	r := httptest.NewRequest("GET", "/address/search?street=-33.8688,151.2093", nil)
	if _, err := FiltersFromQuery(r); err == nil {
		t.Error("expected coordinate-like street to be rejected")
	}
}

func TestFiltersFromQueryUnknownConfidence(t *testing.T) {
	old := ranking
	ranking = NewRanking([]string{"none", "low", "medium", "high", "very-high"})
	defer func() { ranking = old }()

	r := httptest.NewRequest("GET", "/address/search?suburb=KIRRAWEE&min_confidence=bogus", nil)
	if _, err := FiltersFromQuery(r); err == nil {
		t.Error("expected unknown confidence band to be rejected")
	}

	r = httptest.NewRequest("GET", "/address/search?suburb=KIRRAWEE&min_confidence=high", nil)
	f, err := FiltersFromQuery(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.MinConfidence != ConfidenceHigh {
		t.Errorf("MinConfidence = %q, want high", f.MinConfidence)
	}
}

func TestFiltersEmpty(t *testing.T) {
	if !(Filters{}).Empty() {
		t.Error("zero-value filters should be empty")
	}

	num := 14
	set := []Filters{
		{StreetName: "HIGH"},
		{StreetType: "STREET"},
		{Suburb: "KIRRAWEE"},
		{State: "NSW"},
		{Postcode: "2232"},
		{StreetNumber: &num},
		{MinConfidence: ConfidenceHigh},
	}
	for i, f := range set {
		if f.Empty() {
			t.Errorf("filters[%d] has a field set and should not be empty", i)
		}
	}
}

func TestParsePaging(t *testing.T) {
	r := httptest.NewRequest("GET", "/?limit=25&offset=50", nil)
	limit, offset, err := parsePaging(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limit != 25 || offset != 50 {
		t.Errorf("got limit=%d offset=%d, want 25/50", limit, offset)
	}

	r = httptest.NewRequest("GET", "/", nil)
	limit, offset, err = parsePaging(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limit != defaultPageSize || offset != 0 {
		t.Errorf("got limit=%d offset=%d, want defaults", limit, offset)
	}

	r = httptest.NewRequest("GET", "/?limit=99999", nil)
	limit, _, _ = parsePaging(r)
	if limit != maxPageSize {
		t.Errorf("oversized limit should clamp to %d, got %d", maxPageSize, limit)
	}

	for _, bad := range []string{"limit=0", "limit=-5", "limit=abc", "offset=-1"} {
		r = httptest.NewRequest("GET", "/?"+bad, nil)
		if _, _, err := parsePaging(r); err == nil {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}

func TestEnvelopeHasMore(t *testing.T) {
	e := envelope(nil, 120, 50, 0, 50)
	if !e.HasMore {
		t.Error("first page of 120 should have more")
	}
	e = envelope(nil, 120, 50, 100, 20)
	if e.HasMore {
		t.Error("final short page should not have more")
	}
	e = envelope(nil, 0, 50, 0, 0)
	if e.HasMore {
		t.Error("empty result should not have more")
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike("50%_off\\"); got != `50\%\_off\\` {
		t.Errorf("escapeLike = %q", got)
	}
}
