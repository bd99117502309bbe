package order

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"printflow/internal/lib/api/response"
	apierrors "printflow/internal/lib/errors"
)

// ResendInvoice re-emails the already generated invoice PDF to the
// customer. Operators use it when the original mail got lost.
func ResendInvoice(logger *slog.Logger, core Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.order.ResendInvoice"

		log := logger.With(
			slog.String("op", op),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr),
		)

		orderID := chi.URLParam(r, "id")
		if orderID == "" {
			apiErr := apierrors.NewBadRequestError("Order ID is required")
			log.Warn("missing order id parameter", slog.String("error_code", string(apiErr.Code)))
			w.WriteHeader(apiErr.HTTPStatus)
			render.JSON(w, r, response.ErrorFromAPIError(apiErr))
			return
		}

		log = log.With(slog.String("order_id", orderID))

		if err := core.ResendInvoice(r.Context(), orderID); err != nil {
			apiErr := apierrors.NewInternalError("ResendInvoice")
			log.Error("failed to resend invoice",
				slog.String("error", err.Error()),
				slog.String("error_code", string(apiErr.Code)),
			)
			w.WriteHeader(apiErr.HTTPStatus)
			render.JSON(w, r, response.ErrorFromAPIError(apiErr))
			return
		}

		render.JSON(w, r, response.Ok(nil))
	}
}
