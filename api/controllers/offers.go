package controllers

import (
	"net/http"

	"github.com/sanabelapp/sanabel-backend/api/responses"
	"github.com/sanabelapp/sanabel-backend/internal/offers"
	pkgerrors "github.com/sanabelapp/sanabel-backend/pkg/errors"
	"github.com/sanabelapp/sanabel-backend/pkg/logger"
)

// OfferList returns the offers currently open for redemption.
func OfferList(repo offers.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offers repository unavailable"))
			return
		}

		list, err := repo.ListRedeemable(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list offers"))
			return
		}

		responses.WriteSuccess(w, list)
	}
}
