package webhooks

import (
	"io"
	"net/http"
	"strings"

	"github.com/sanabelapp/sanabel-backend/api/responses"
	gatewaywebhook "github.com/sanabelapp/sanabel-backend/internal/webhooks/gateway"
	pkgerrors "github.com/sanabelapp/sanabel-backend/pkg/errors"
	"github.com/sanabelapp/sanabel-backend/pkg/logger"
)

// GatewayNotification ingests the gateway's server-to-server payment
// notification. The contract with the gateway is 2xx for anything the
// service has absorbed; only transient failures answer non-2xx so the
// gateway retries the delivery.
func GatewayNotification(svc gatewaywebhook.Service, guard *gatewaywebhook.Guard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read request body"))
			return
		}

		fingerprint := gatewaywebhook.Fingerprint(payload)
		if !guard.CheckAndMark(ctx, fingerprint) {
			responses.WriteSuccess(w, map[string]string{"status": "duplicate"})
			return
		}

		if err := svc.HandleNotification(ctx, payload); err != nil {
			if pkgerrors.IsRetryable(err) {
				guard.Release(ctx, fingerprint)
				responses.WriteError(ctx, logg, w, err)
				return
			}
			// Poisoned payload. Acknowledge so the gateway stops
			// retrying; the audit row and logs keep the evidence.
			if logg != nil {
				logg.Error(ctx, "webhook.rejected", err)
			}
			responses.WriteSuccess(w, map[string]string{"status": "rejected"})
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}

// GatewayRedirect serves the browser's return from the hosted checkout page.
// It is a pure read; settlement only ever happens on the notification path.
func GatewayRedirect(svc gatewaywebhook.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		trackID := strings.TrimSpace(r.URL.Query().Get("track_id"))
		if trackID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "track_id is required"))
			return
		}

		if logg != nil {
			ctx = logg.WithTrackID(ctx, trackID)
		}

		view, err := svc.RedirectView(ctx, trackID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}
