package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inkdrop-studio/inkdrop-backend/api/controllers"
	"github.com/inkdrop-studio/inkdrop-backend/api/middleware"
	"github.com/inkdrop-studio/inkdrop-backend/internal/artifacts"
	"github.com/inkdrop-studio/inkdrop-backend/internal/claims"
	"github.com/inkdrop-studio/inkdrop-backend/internal/drafts"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/config"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/logger"
	pkgredis "github.com/inkdrop-studio/inkdrop-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *pkgredis.Client,
	readinessDeps map[string]controllers.Pinger,
	draftService drafts.Service,
	artifactService artifacts.Service,
	claimService claims.Service,
) http.Handler {
	r := chi.NewRouter()

	// avoid typed-nil interfaces when redis is not wired
	var idemStore pkgredis.IdempotencyStore
	var limiterStore middleware.RateLimiterStore
	if redisClient != nil {
		idemStore = redisClient
		limiterStore = redisClient
	}

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readinessDeps))
	})

	r.Route("/api/v1/drafts", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))
		r.Use(middleware.GuestCredential())
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Post("/", controllers.DraftCreate(draftService, logg))

		r.Route("/{draftId}", func(r chi.Router) {
			r.Get("/", controllers.DraftGet(draftService, logg))
			r.Put("/selection", controllers.DraftUpdateSelection(draftService, logg))
			r.Post("/abandon", controllers.DraftAbandon(draftService, logg))

			r.Route("/design", func(r chi.Router) {
				r.With(middleware.GenerateRateLimit(cfg.RateLimit, limiterStore, logg)).
					Post("/", controllers.DesignGenerate(artifactService, logg))
				r.Get("/", controllers.DesignGet(artifactService, logg))
				r.Post("/reset", controllers.DraftResetDesign(draftService, logg))
			})

			r.With(middleware.Auth(cfg.JWT, logg)).
				Post("/claim", controllers.DraftClaim(claimService, logg))
		})
	})

	return r
}
