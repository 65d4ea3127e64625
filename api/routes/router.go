package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vbkouture/cencad-backend/api/controllers"
	webhookcontrollers "github.com/vbkouture/cencad-backend/api/controllers/webhooks"
	"github.com/vbkouture/cencad-backend/api/middleware"
	"github.com/vbkouture/cencad-backend/internal/accounts"
	"github.com/vbkouture/cencad-backend/internal/assignments"
	"github.com/vbkouture/cencad-backend/internal/licenses"
	"github.com/vbkouture/cencad-backend/internal/trainees"
	stripewebhook "github.com/vbkouture/cencad-backend/internal/webhooks/stripe"
	"github.com/vbkouture/cencad-backend/pkg/config"
	"github.com/vbkouture/cencad-backend/pkg/db"
	"github.com/vbkouture/cencad-backend/pkg/enums"
	"github.com/vbkouture/cencad-backend/pkg/logger"
	"github.com/vbkouture/cencad-backend/pkg/redis"
	"github.com/vbkouture/cencad-backend/pkg/stripe"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	accountsService accounts.Service,
	licensesService licenses.Service,
	traineesService trainees.Service,
	assignmentsService assignments.Service,
	stripeClient *stripe.Client,
	stripeWebhookService *stripewebhook.Service,
	promRegistry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, redisClient, logg))
	})

	if promRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(stripeWebhookService, stripeClient, logg))
	})

	r.Route("/api/v1/corporate", func(r chi.Router) {
		r.Post("/register", controllers.CorporateRegister(accountsService, logg))

		r.Group(func(r chi.Router) {
			r.Use(
				middleware.Auth(cfg.JWT, logg),
				middleware.RequireRole(logg, string(enums.UserRoleCorporateStaff), string(enums.UserRoleAdmin)),
			)

			r.Get("/account", controllers.AccountGet(accountsService, logg))
			r.Patch("/account", controllers.AccountUpdate(accountsService, logg))
			r.Get("/dashboard/stats", controllers.DashboardStats(accountsService, logg))

			r.Post("/checkout/session", controllers.CheckoutSessionCreate(stripeClient, logg))
			r.Get("/licenses", controllers.LicenseList(licensesService, logg))

			r.Route("/trainees", func(r chi.Router) {
				r.Post("/invite", controllers.TraineeInvite(traineesService, logg))
				r.Get("/", controllers.TraineeList(traineesService, logg))
				r.Delete("/{id}", controllers.TraineeRemove(traineesService, logg))
				r.Post("/assign", controllers.AssignmentCreate(assignmentsService, logg))
				r.Post("/unassign", controllers.AssignmentRemove(assignmentsService, logg))
			})
		})
	})

	return r
}
