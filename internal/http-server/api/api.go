package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"printflow/internal/config"
	"printflow/internal/http-server/handlers/errors"
	"printflow/internal/http-server/handlers/order"
	"printflow/internal/http-server/handlers/webhook"
	"printflow/internal/http-server/middleware/authenticate"
	"printflow/internal/http-server/middleware/timeout"
	"printflow/internal/lib/api/response"
	"printflow/internal/lib/sl"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	order.Core
	webhook.Core
}

func New(conf *config.Config, log *slog.Logger, handler Handler) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	router := chi.NewRouter()
	router.Use(timeout.Timeout(30))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Route("/fulfillment", func(v1 chi.Router) {
		// Providers cannot send bearer tokens; the webhook route stays open
		// and the reconciler joins payloads against known orders.
		v1.Post("/webhook", webhook.Receive(log, handler))

		v1.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			render.JSON(w, r, response.Ok(map[string]string{"status": "up"}))
		})

		v1.Group(func(authed chi.Router) {
			authed.Use(authenticate.New(log, handler))
			authed.Post("/order/{id}/refresh", order.Refresh(log, handler))
			authed.Post("/order/{id}/invoice/resend", order.ResendInvoice(log, handler))
		})
	})

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:  router,
		ErrorLog: httpLog,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIP, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
