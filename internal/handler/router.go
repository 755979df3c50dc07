package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	appHandler "github.com/figmentlabs/figment/internal/handler/app"
	middlewarePkg "github.com/figmentlabs/figment/internal/middleware"
	"github.com/figmentlabs/figment/internal/service/engine"
	sessionService "github.com/figmentlabs/figment/internal/service/session"
	"github.com/figmentlabs/figment/pkg/utils"
	"github.com/figmentlabs/figment/web"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(sessions *sessionService.Service, eng *engine.Engine) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	wsHandler := appHandler.New(eng, sessions)
	wsHandler.RegisterRoutes(r)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Browser shell that renders views and captures interactions.
	r.Handle("/*", web.Handler())

	return r
}
