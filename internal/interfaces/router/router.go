package router

import (
	"context"

	authsvc "marketplace-backend/internal/application/auth"
	eventsvc "marketplace-backend/internal/application/listingevents"
	formsvc "marketplace-backend/internal/application/listingform"
	listsvc "marketplace-backend/internal/application/listings"
	"marketplace-backend/internal/application/slug"
	uploadsvc "marketplace-backend/internal/application/uploads"
	usersvc "marketplace-backend/internal/application/user"
	"marketplace-backend/internal/config"
	"marketplace-backend/internal/infrastructure/database"
	healthhandler "marketplace-backend/internal/interfaces/handlers/health"
	eventhandler "marketplace-backend/internal/interfaces/handlers/listingevents"
	formhandler "marketplace-backend/internal/interfaces/handlers/listingform"
	listhandler "marketplace-backend/internal/interfaces/handlers/listings"
	searchhandler "marketplace-backend/internal/interfaces/handlers/search"
	uploadhandler "marketplace-backend/internal/interfaces/handlers/uploads"
	userhandler "marketplace-backend/internal/interfaces/handlers/user"
	"marketplace-backend/internal/middleware"
	"marketplace-backend/internal/pkg/retry"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) PingContext(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Deps are the connected dependencies the app is assembled from.
type Deps struct {
	DB       *gorm.DB
	Rdb      *redis.Client
	Verifier authsvc.Verifier
	// Storage signs upload URLs; nil uses the Supabase REST client from config.
	Storage uploadsvc.StorageClient
}

// CreateApp connects the store, Redis and the identity provider from cfg and builds the app.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, nil, errors.New("router: DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, nil, nil, errors.New("router: REDIS_URL is required")
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "open database")
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, nil, nil, errors.Wrap(err, "migrate database")
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "parse REDIS_URL")
	}
	// Per-call deadlines (drafts, health counters) only apply with this set.
	opts.ContextTimeoutEnabled = true
	rdb := redis.NewClient(opts)

	verifier, err := newVerifier(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	app := NewApp(cfg, Deps{DB: db, Rdb: rdb, Verifier: verifier})
	return app, db, rdb, nil
}

func newVerifier(cfg *config.Config) (authsvc.Verifier, error) {
	switch cfg.AuthProvider {
	case config.AuthProviderJWT:
		return authsvc.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	case config.AuthProviderFirebase:
		return authsvc.NewFirebaseVerifier(context.Background(), cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile, cfg.AuthTimeout)
	default:
		return nil, errors.Errorf("router: unknown auth provider %q", cfg.AuthProvider)
	}
}

// NewApp mounts middleware and every route on a new Fiber app.
func NewApp(cfg *config.Config, deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.HealthMarker(deps.Rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	app.Use(middleware.Metrics())

	hh := &healthhandler.Handlers{Rdb: deps.Rdb, HealthAdminKey: cfg.HealthAdminKey}
	if deps.DB != nil {
		hh.DB = &gormDBPinger{db: deps.DB}
	}
	app.Get("/health", hh.Live)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)
	app.Get("/reset", hh.Reset)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	requireAuth := middleware.RequireAuth(deps.Verifier)
	api := app.Group("/api/v1")

	ls := &listsvc.Service{
		DB:           deps.DB,
		Slugs:        slug.NewResolver(cfg.SlugMaxSuffix),
		StoreTimeout: cfg.StoreTimeout,
		Retry:        retry.DefaultConfig(),
	}
	lh := &listhandler.Handlers{Service: ls}
	leh := &eventhandler.Handlers{Service: &eventsvc.Service{DB: deps.DB, StoreTimeout: cfg.StoreTimeout}}

	api.Post("/listings", requireAuth, lh.CreateListing)
	api.Get("/listings", requireAuth, lh.GetMyListings)
	api.Get("/listings/:type/:slug", lh.GetListing)
	api.Put("/listings/:type/:slug", requireAuth, lh.UpdateListing)
	api.Delete("/listings/:type/:slug", requireAuth, lh.DeleteListing)
	api.Get("/listings/:type/:slug/events", requireAuth, leh.GetListingEvents)
	api.Get("/categories/:category", lh.GetCategory)

	sh := &searchhandler.Handlers{Listings: ls}
	api.Get("/search", sh.Search)

	fh := &formhandler.Handlers{Drafts: &formsvc.DraftStore{
		Rdb:      deps.Rdb,
		TTL:      cfg.DraftTTL,
		Listings: ls,
		Timeout:  cfg.StoreTimeout,
	}}
	api.Get("/listing-form/steps", fh.GetSteps)
	api.Post("/listing-drafts", requireAuth, fh.StartDraft)
	api.Get("/listing-drafts/:id", requireAuth, fh.GetDraft)
	api.Patch("/listing-drafts/:id", requireAuth, fh.UpdateDraft)
	api.Delete("/listing-drafts/:id", requireAuth, fh.DiscardDraft)
	api.Post("/listing-drafts/:id/submit", requireAuth, fh.SubmitDraft)

	uh := &userhandler.Handlers{Service: &usersvc.Service{DB: deps.DB, StoreTimeout: cfg.StoreTimeout}}
	ug := api.Group("/users", requireAuth)
	ug.Post("/sync", uh.SyncUser)
	ug.Get("/me", uh.GetMe)
	ug.Delete("/me", uh.DeleteMe)
	ug.Get("/me/events", leh.GetMyEvents)

	storage := deps.Storage
	if storage == nil {
		storage = &uploadsvc.HTTPClient{BaseURL: cfg.SupabaseURL, SecretKey: cfg.SupabaseSecretKey}
	}
	uph := &uploadhandler.Handlers{Service: &uploadsvc.Service{
		Client:      storage,
		SupabaseURL: cfg.SupabaseURL,
		Timeout:     cfg.StoreTimeout,
	}}
	api.Post("/uploads/listing-image", requireAuth, uph.UploadListingImage)

	log.Info().Str("auth_provider", cfg.AuthProvider).Msg("routes mounted")
	return app
}
