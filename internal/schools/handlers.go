package schools

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/SchoolRadar/SR-Backend/internal/geo"
	"github.com/SchoolRadar/SR-Backend/internal/gnaf"
	"github.com/SchoolRadar/SR-Backend/internal/qerr"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// pageOut wraps paged results with the unpaged total; the stale flag is
// set on membership pages served from a lagging cache.
type pageOut struct {
	Results    any   `json:"results"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	HasMore    bool  `json:"has_more"`
	Stale      bool  `json:"stale,omitempty"`
}

func page(results any, total int64, limit, offset, n int) pageOut {
	return pageOut{
		Results:    results,
		TotalCount: total,
		Limit:      limit,
		Offset:     offset,
		HasMore:    int64(offset+n) < total,
	}
}

// GetSchool handles GET /school/{acara_id}.
func GetSchool(w http.ResponseWriter, r *http.Request) {
	out, err := LookupSchool(r.Context(), chi.URLParam(r, "acara_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, out)
}

// SearchSchoolsHandler handles GET /search?name=...
func SearchSchoolsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 20
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, qerr.Invalid("limit must be a positive integer, got %q", s))
			return
		}
		limit = n
	}

	out, err := SearchSchools(r.Context(), q.Get("name"), q.Get("state"), q.Get("sector"), q.Get("type"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, out)
}

// GetSchoolCatchments handles GET /school/{acara_id}/catchments,
// returning each boundary as a GeoJSON feature.
func GetSchoolCatchments(w http.ResponseWriter, r *http.Request) {
	cs, err := CatchmentsForSchool(r.Context(), chi.URLParam(r, "acara_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	features := make([]map[string]any, 0, len(cs))
	for _, c := range cs {
		features = append(features, map[string]any{
			"type": "Feature",
			"properties": map[string]any{
				"id":         c.ID,
				"school_id":  c.SchoolID,
				"kind":       c.Kind,
				"updated_at": c.UpdatedAt,
			},
			"geometry": c.Geometry,
		})
	}
	writeJSON(w, map[string]any{
		"type":     "FeatureCollection",
		"features": features,
	})
}

// GetSchoolBuffer handles GET /school/{acara_id}/buffer, returning the
// derived reach polygon as a GeoJSON feature.
func GetSchoolBuffer(w http.ResponseWriter, r *http.Request) {
	buf, geom, point, err := BufferForSchool(r.Context(), chi.URLParam(r, "acara_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"type": "Feature",
		"properties": map[string]any{
			"school_id":     buf.SchoolID,
			"radius_meters": buf.RadiusMeters,
			"built_at":      buf.BuiltAt,
			"school_point":  []float64{point.Lng, point.Lat},
		},
		"geometry": json.RawMessage(geom),
	})
}

// GetAddressesNearSchool handles GET /school/{acara_id}/addresses:
// radius proximity search centred on the school, nearest first.
func GetAddressesNearSchool(w http.ResponseWriter, r *http.Request) {
	var radius float64
	if r.URL.Query().Get("radius_m") != "" {
		v, err := parseFloat(r, "radius_m")
		if err != nil {
			writeError(w, err)
			return
		}
		if v <= 0 {
			writeError(w, qerr.Invalid("radius_m must be positive"))
			return
		}
		radius = v
	}

	f, err := gnaf.FiltersFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	limit, offset, err := parsePaging(r)
	if err != nil {
		writeError(w, err)
		return
	}

	out, total, err := AddressesNearSchool(r.Context(), chi.URLParam(r, "acara_id"), radius, f, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, page(out, total, limit, offset, len(out)))
}

// GetNearestAddresses handles GET /school/{acara_id}/nearest?k=N.
func GetNearestAddresses(w http.ResponseWriter, r *http.Request) {
	k := 10
	if s := r.URL.Query().Get("k"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, qerr.Invalid("k must be an integer, got %q", s))
			return
		}
		k = n
	}

	out, err := NearestAddresses(r.Context(), chi.URLParam(r, "acara_id"), k)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, out)
}

// GetSchoolsAtPoint handles GET /catchments/at?lat=&lng=: every school
// whose official boundary contains the point.
func GetSchoolsAtPoint(w http.ResponseWriter, r *http.Request) {
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

	matches, stale, err := SchoolsContaining(r.Context(), geo.Point{Lat: lat, Lng: lng})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"matches": matches,
		"stale":   stale,
	})
}

// GetSchoolsForAddress handles GET /address/{gnaf_pid}/schools.
func GetSchoolsForAddress(w http.ResponseWriter, r *http.Request) {
	matches, stale, err := SchoolsForAddress(r.Context(), chi.URLParam(r, "gnaf_pid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"matches": matches,
		"stale":   stale,
	})
}

// GetSchoolByCatchment handles GET /catchment/{id}/school.
func GetSchoolByCatchment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, qerr.Invalid("catchment id must be a UUID"))
		return
	}
	out, err := ResolveByCatchment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, out)
}

// GetAddressesInCatchment handles GET /catchment/{id}/addresses.
func GetAddressesInCatchment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, qerr.Invalid("catchment id must be a UUID"))
		return
	}

	limit, offset, err := parsePaging(r)
	if err != nil {
		writeError(w, err)
		return
	}

	out, total, stale, err := AddressesInCatchment(r.Context(), id, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	p := page(out, total, limit, offset, len(out))
	p.Stale = stale
	writeJSON(w, p)
}
