package schools

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Get("/search", SearchSchoolsHandler)
	r.Get("/school/{acara_id}", GetSchool)
	r.Get("/school/{acara_id}/catchments", GetSchoolCatchments)
	r.Get("/school/{acara_id}/buffer", GetSchoolBuffer)
	r.Get("/school/{acara_id}/addresses", GetAddressesNearSchool)
	r.Get("/school/{acara_id}/nearest", GetNearestAddresses)
	r.Get("/catchments/at", GetSchoolsAtPoint)
	r.Get("/catchment/{id}/addresses", GetAddressesInCatchment)
	r.Get("/catchment/{id}/school", GetSchoolByCatchment)
	r.Get("/address/{gnaf_pid}/schools", GetSchoolsForAddress)

	return r
}

// SetupAdminRoutes exposes the rebuild job endpoints.
func SetupAdminRoutes() http.Handler {
	r := chi.NewRouter()

	r.Post("/rebuild/{kind}", StartRebuild)
	r.Get("/rebuild", ListRebuildJobs)
	r.Get("/rebuild/{jobID}", GetRebuildStatus)

	return r
}
