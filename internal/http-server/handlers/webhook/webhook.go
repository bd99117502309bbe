package webhook

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"printflow/internal/lib/api/request"
	"printflow/internal/lib/api/response"
	"printflow/internal/lib/sl"
)

// Receive accepts provider callbacks. The response is always 200: both
// providers retry on error responses, and a payload that failed once will
// fail on every redelivery. Failures surface through the error log, which
// the operator channel mirrors.
func Receive(logger *slog.Logger, core Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.webhook.Receive"

		source := r.URL.Query().Get("source")
		log := logger.With(
			slog.String("op", op),
			slog.String("source", source),
			slog.String("remote_addr", r.RemoteAddr),
		)

		body, err := request.ReadBody(r)
		if err != nil {
			if errors.Is(err, request.ErrEmptyBody) {
				// Endpoint verification probes post nothing.
				log.Debug("empty webhook body acknowledged")
			} else {
				log.Warn("failed to read webhook body", sl.Err(err))
			}
			render.JSON(w, r, response.Ok(nil))
			return
		}

		if err := core.ProcessWebhook(r.Context(), source, body); err != nil {
			log.Warn("webhook processing failed", sl.Err(err))
			render.JSON(w, r, response.Ok(nil))
			return
		}

		render.JSON(w, r, response.Ok(nil))
	}
}
