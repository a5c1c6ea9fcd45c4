package autocomplete

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SchoolRadar/SR-Backend/internal/config"
	"github.com/SchoolRadar/SR-Backend/internal/qerr"
	"github.com/go-chi/chi/v5"
)

func TestMain(m *testing.M) {
	Init(config.Default())
	m.Run()
}

func TestKindValid(t *testing.T) {
	for _, k := range []Kind{KindStreet, KindSuburb, KindPostcode, KindSchool} {
		if !k.Valid() {
			t.Errorf("%q should be valid", k)
		}
	}
	if Kind("address").Valid() {
		t.Error("address is not a suggestion kind")
	}
}

func TestShortQueriesAreInvalidNotEmpty(t *testing.T) {
	// Suburb minimum is 2, school minimum is 3.
	cases := []struct {
		kind  Kind
		query string
	}{
		{KindSuburb, "K"},
		{KindStreet, "B"},
		{KindPostcode, "2"},
		{KindSchool, "Sy"},
		{KindSuburb, "  K  "}, // whitespace does not count toward length
	}

	for _, c := range cases {
		_, err := Suggest(context.Background(), c.kind, c.query, Scope{})
		if !errors.Is(err, qerr.ErrInvalidQuery) {
			t.Errorf("Suggest(%s, %q) error = %v, want ErrInvalidQuery", c.kind, c.query, err)
		}
	}
}

func TestUnknownKindIsInvalid(t *testing.T) {
	_, err := Suggest(context.Background(), Kind("postbox"), "2232", Scope{})
	if !errors.Is(err, qerr.ErrInvalidQuery) {
		t.Errorf("error = %v, want ErrInvalidQuery", err)
	}
}

func TestDisplayTitleCasesUppercaseRecords(t *testing.T) {
	if got := display("BLUEGUM CRESCENT"); got != "Bluegum Crescent" {
		t.Errorf("display = %q, want %q", got, "Bluegum Crescent")
	}
	if got := display("MACQUARIE PARK"); got != "Macquarie Park" {
		t.Errorf("display = %q, want %q", got, "Macquarie Park")
	}
}

func TestGetSuggestionsRejectsShortQuery(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/{kind}", GetSuggestions)

	req := httptest.NewRequest("GET", "/suburb?q=K", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCacheKeyNormalisesCase(t *testing.T) {
	if cacheKey(KindSuburb, "KIRR", Scope{State: "NSW"}) != cacheKey(KindSuburb, "kirr", Scope{State: "NSW"}) {
		t.Error("cache key should be case-insensitive on the query")
	}
	if cacheKey(KindSuburb, "KIRR", Scope{State: "NSW"}) == cacheKey(KindStreet, "KIRR", Scope{State: "NSW"}) {
		t.Error("cache key should separate kinds")
	}
}
