package gnaf

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/SchoolRadar/SR-Backend/internal/geo"
	"github.com/SchoolRadar/SR-Backend/internal/qerr"
	"github.com/go-chi/chi/v5"
)

// FiltersFromQuery builds the shared filter set from query params. The
// free-text fields reject pasted coordinate pairs early.
func FiltersFromQuery(r *http.Request) (Filters, error) {
	q := r.URL.Query()
	f := Filters{
		StreetName: strings.TrimSpace(q.Get("street")),
		StreetType: strings.TrimSpace(q.Get("street_type")),
		Suburb:     strings.TrimSpace(q.Get("suburb")),
		State:      strings.TrimSpace(q.Get("state")),
		Postcode:   strings.TrimSpace(q.Get("postcode")),
		Ranking:    ranking,
	}

	if s := q.Get("number"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return Filters{}, qerr.Invalid("number must be a positive integer, got %q", s)
		}
		f.StreetNumber = &n
	}

	for _, field := range []string{f.StreetName, f.Suburb} {
		if looksLikeCoordinates(field) {
			return Filters{}, qerr.Invalid("%q looks like a coordinate pair; use lat/lng parameters instead", field)
		}
	}

	if mc := q.Get("min_confidence"); mc != "" {
		c := Confidence(mc)
		if !ranking.Known(c) {
			return Filters{}, qerr.Invalid("unknown confidence band %q", mc)
		}
		f.MinConfidence = c
	}

	return f, nil
}

// SearchAddresses handles GET /address/search: attribute search with
// case-insensitive prefix matching and stable paging.
func SearchAddresses(w http.ResponseWriter, r *http.Request) {
	f, err := FiltersFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if f.StreetName == "" && f.Suburb == "" && f.State == "" && f.Postcode == "" {
		writeError(w, qerr.Invalid("at least one of street, suburb, state, postcode is required"))
		return
	}

	limit, offset, err := parsePaging(r)
	if err != nil {
		writeError(w, err)
		return
	}

	addrs, total, err := FindByAttributes(r.Context(), f, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]AddressOut, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.Out())
	}
	writeJSON(w, envelope(out, total, limit, offset, len(out)))
}

// GetAddress handles GET /address/{gnaf_pid}.
func GetAddress(w http.ResponseWriter, r *http.Request) {
	pid := chi.URLParam(r, "gnaf_pid")
	addr, err := LookupAddress(r.Context(), pid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, addr.Out())
}

// AddressesNear handles GET /address/near: radius search around an
// arbitrary point, nearest first.
func AddressesNear(w http.ResponseWriter, r *http.Request) {
	lat, err := parseFloat(r, "lat")
	if err != nil {
		writeError(w, err)
		return
	}
	lng, err := parseFloat(r, "lng")
	if err != nil {
		writeError(w, err)
		return
	}

	radius := defaultRadiusMeters
	if r.URL.Query().Get("radius_m") != "" {
		radius, err = parseFloat(r, "radius_m")
		if err != nil {
			writeError(w, err)
			return
		}
	}
	if radius <= 0 {
		writeError(w, qerr.Invalid("radius_m must be positive"))
		return
	}

	f, err := FiltersFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	limit, offset, err := parsePaging(r)
	if err != nil {
		writeError(w, err)
		return
	}

	out, total, err := Within(r.Context(), geo.Point{Lat: lat, Lng: lng}, radius, f, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, envelope(out, total, limit, offset, len(out)))
}

// GetStats handles GET /stats.
func GetStats(w http.ResponseWriter, r *http.Request) {
	counts, err := Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, counts)
}

// GetSuburbsByState handles GET /suburbs?state=XX.
func GetSuburbsByState(w http.ResponseWriter, r *http.Request) {
	suburbs, err := SuburbsByState(r.Context(), r.URL.Query().Get("state"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, suburbs)
}

// GetPostcodesBySuburb handles GET /postcodes?suburb=NAME.
func GetPostcodesBySuburb(w http.ResponseWriter, r *http.Request) {
	postcodes, err := PostcodesBySuburb(r.Context(), r.URL.Query().Get("suburb"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, postcodes)
}
