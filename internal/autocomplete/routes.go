package autocomplete

import (
	"encoding/json"
	"net/http"

	"github.com/SchoolRadar/SR-Backend/internal/qerr"
	"github.com/go-chi/chi/v5"
)

// GetSuggestions handles GET /{kind}?q=...&state=XX.
func GetSuggestions(w http.ResponseWriter, r *http.Request) {
	kind := Kind(chi.URLParam(r, "kind"))
	q := r.URL.Query()

	out, err := Suggest(r.Context(), kind, q.Get("q"), Scope{
		State:    q.Get("state"),
		SchoolID: q.Get("school"),
	})
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(qerr.Status(err))
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	if out == nil {
		out = []Suggestion{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func SetupRoutes() http.Handler {
	r := chi.NewRouter()
	r.Get("/{kind}", GetSuggestions)
	return r
}
