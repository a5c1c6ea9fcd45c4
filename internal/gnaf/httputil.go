package gnaf

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"

	"github.com/SchoolRadar/SR-Backend/internal/qerr"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(qerr.Status(err))
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// PageEnvelope wraps paged results with the unpaged total so clients can
// render result counts without walking every page.
type PageEnvelope struct {
	Results    any   `json:"results"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	HasMore    bool  `json:"has_more"`
}

func envelope(results any, total int64, limit, offset, n int) PageEnvelope {
	return PageEnvelope{
		Results:    results,
		TotalCount: total,
		Limit:      limit,
		Offset:     offset,
		HasMore:    int64(offset+n) < total,
	}
}

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

func parsePaging(r *http.Request) (limit, offset int, err error) {
	limit = defaultPageSize
	if s := r.URL.Query().Get("limit"); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil || limit <= 0 {
			return 0, 0, qerr.Invalid("limit must be a positive integer, got %q", s)
		}
		if limit > maxPageSize {
			limit = maxPageSize
		}
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		offset, err = strconv.Atoi(s)
		if err != nil || offset < 0 {
			return 0, 0, qerr.Invalid("offset must be a non-negative integer, got %q", s)
		}
	}
	return limit, offset, nil
}

func parseFloat(r *http.Request, key string) (float64, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, qerr.Invalid("%s is required", key)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, qerr.Invalid("%s must be a number, got %q", key, s)
	}
	return v, nil
}

var coordPairRe = regexp.MustCompile(`^\s*-?\d+(\.\d+)?\s*,\s*-?\d+(\.\d+)?\s*$`)

// looksLikeCoordinates catches "lat,lng" strings pasted into a text field.
// They never match an address and point at the wrong endpoint.
func looksLikeCoordinates(s string) bool {
	return coordPairRe.MatchString(s)
}
