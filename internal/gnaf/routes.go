package gnaf

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Get("/address/search", SearchAddresses)
	r.Get("/address/near", AddressesNear)
	r.Get("/address/{gnaf_pid}", GetAddress)
	r.Get("/suburbs", GetSuburbsByState)
	r.Get("/postcodes", GetPostcodesBySuburb)
	r.Get("/stats", GetStats)

	return r
}
