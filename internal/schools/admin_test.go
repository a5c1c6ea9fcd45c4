package schools

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestValidRebuildKind(t *testing.T) {
	for _, kind := range []string{"buffers", "membership", "index"} {
		if !validRebuildKind(kind) {
			t.Errorf("%q should be a rebuild kind", kind)
		}
	}
	if validRebuildKind("everything") {
		t.Error("unknown kinds must be rejected")
	}
}

func TestStartRebuildRejectsUnknownKind(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/rebuild/{kind}", StartRebuild)

	req := httptest.NewRequest("POST", "/rebuild/everything", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetRebuildStatusUnknownJob(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/rebuild/{jobID}", GetRebuildStatus)

	req := httptest.NewRequest("GET", "/rebuild/no-such-job", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetAddressesInCatchmentRejectsBadID(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/catchment/{id}/addresses", GetAddressesInCatchment)

	req := httptest.NewRequest("GET", "/catchment/not-a-uuid/addresses", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
