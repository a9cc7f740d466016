package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"workshop/internal/api"
	"workshop/internal/booking"
	"workshop/internal/checklist"
	"workshop/internal/estimate"
	"workshop/internal/identity"
	"workshop/internal/job"
	"workshop/internal/notify"
	"workshop/internal/servicerecord"
	"workshop/pkg/config"
	"workshop/pkg/logger"
	"workshop/pkg/metrics"
)

type Dependencies struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Log      logger.Logger
	Metrics  *metrics.Metrics
	Notifier *notify.Dispatcher
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	identityRepo := identity.NewRepository(deps.DB)
	authService := &identity.Service{
		Repo:   identityRepo,
		Secret: []byte(deps.Cfg.Auth.JWTSecret),
		TTL:    deps.Cfg.Auth.TokenTTL,
	}
	authHandlers := identity.Handlers{Auth: authService}

	bookingRepo := booking.NewRepository(deps.DB)
	jobRepo := job.NewRepository(deps.DB)
	estimateRepo := estimate.NewRepository(deps.DB)
	checklistRepo := checklist.NewRepository(deps.DB)
	recordRepo := servicerecord.NewRepository(deps.DB)

	bookingHandlers := booking.Handlers{
		DB:        deps.DB,
		Bookings:  bookingRepo,
		Jobs:      jobRepo,
		Estimates: estimateRepo,
		Records:   recordRepo,
		Notifier:  deps.Notifier,
		Log:       deps.Log,
		Metrics:   deps.Metrics,
	}
	jobHandlers := job.Handlers{
		DB:         deps.DB,
		Jobs:       jobRepo,
		Checklists: checklistRepo,
		Notifier:   deps.Notifier,
		Log:        deps.Log,
		Metrics:    deps.Metrics,
	}
	estimateHandlers := estimate.Handlers{
		DB:        deps.DB,
		Estimates: estimateRepo,
		Notifier:  deps.Notifier,
		Log:       deps.Log,
		Metrics:   deps.Metrics,
	}
	recordHandlers := servicerecord.Handlers{
		Records: recordRepo,
		Log:     deps.Log,
	}
	checklistHandlers := checklist.Handlers{
		Checklists: checklistRepo,
		Log:        deps.Log,
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(api.CORSMiddleware(api.CORSOptions{
			AllowedOrigins: deps.Cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
			MaxAgeSeconds:  600,
		}))

		r.Post("/auth/login", authHandlers.Login)

		r.Group(func(r chi.Router) {
			r.Use(api.SessionAuth(authService))
			r.Use(api.RoleGate(api.DefaultRouteRules))

			r.Post("/auth/logout", authHandlers.Logout)
			r.Get("/auth/me", authHandlers.Me)

			r.Post("/bookings", bookingHandlers.Create)
			r.Get("/bookings", bookingHandlers.List)
			r.Get("/bookings/{id}", bookingHandlers.Get)
			r.Put("/bookings/{id}", bookingHandlers.Update)
			r.Put("/bookings/{id}/status", bookingHandlers.ChangeStatus)
			r.Get("/bookings/{id}/events", bookingHandlers.Events)

			r.Post("/jobs", jobHandlers.Create)
			r.Get("/jobs", jobHandlers.List)
			r.Get("/jobs/{id}", jobHandlers.Get)
			r.Put("/jobs/{id}/start", jobHandlers.Start)
			r.Put("/jobs/{id}/complete", jobHandlers.Complete)
			r.Put("/jobs/{id}/hold", jobHandlers.Hold)
			r.Put("/jobs/{id}/resume", jobHandlers.Resume)
			r.Put("/jobs/{id}/cancel", jobHandlers.Cancel)
			r.Get("/jobs/{id}/checklist", jobHandlers.Checklist)
			r.Put("/jobs/{id}/checklist/items/{itemId}", jobHandlers.SetChecklistItem)

			r.Post("/estimates", estimateHandlers.Create)
			r.Get("/estimates", estimateHandlers.List)
			r.Get("/estimates/{id}", estimateHandlers.Get)
			r.Put("/estimates/{id}/send", estimateHandlers.Send)
			r.Put("/estimates/{id}/approve", estimateHandlers.Approve)
			r.Put("/estimates/{id}/reject", estimateHandlers.Reject)

			r.Get("/checklists", checklistHandlers.List)
			r.Get("/checklists/{id}", checklistHandlers.Get)

			r.Get("/service-records", recordHandlers.List)
		})
	})

	return r
}
