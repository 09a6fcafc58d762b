package router

import (
	"errors"
	"net/http"
	"time"

	"shelter-clinical-records/internal/adapters/storage/sqlstore"
	"shelter-clinical-records/internal/config"
	"shelter-clinical-records/internal/domain/animals"
	"shelter-clinical-records/internal/domain/chart"
	"shelter-clinical-records/internal/domain/media"
	"shelter-clinical-records/internal/domain/pharmacy"
	"shelter-clinical-records/internal/domain/records"
	"shelter-clinical-records/internal/domain/users"
	"shelter-clinical-records/internal/middleware"
	_ "shelter-clinical-records/internal/platform/docs"
	"shelter-clinical-records/internal/platform/i18n"
	"shelter-clinical-records/internal/platform/logger"
	"shelter-clinical-records/internal/platform/metrics"
	"shelter-clinical-records/internal/platform/session"
	"shelter-clinical-records/internal/platform/view"
	"shelter-clinical-records/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	Config *config.Config
	DB     *sqlstore.DB

	// Opcionales: si vienen nil se usa un logger nop y un collector propio.
	Logger  logger.Logger
	Metrics *metrics.Collector
}

// App expone lo que cmd necesita además del handler (purga de sesiones al arrancar).
type App struct {
	Handler  http.Handler
	Sessions *session.Manager
}

func NewRouter(opts Options) (http.Handler, error) {
	app, err := New(opts)
	if err != nil {
		return nil, err
	}
	return app.Handler, nil
}

func New(opts Options) (*App, error) {
	if opts.Config == nil || opts.DB == nil {
		return nil, errors.New("router: config and db are required")
	}
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.NewCollector(cfg.App.Name)
		m.WatchDB(opts.DB.SQL(), cfg.Database.Driver)
	}

	tr, err := i18n.New(cfg.I18n.DefaultLanguage)
	if err != nil {
		return nil, err
	}

	sessions, err := session.NewManager(sqlstore.NewSessionStore(opts.DB), session.Options{
		CookieName:  cfg.Session.CookieName,
		IdleTimeout: cfg.Session.IdleTimeout,
		Secret:      []byte(cfg.Session.Secret),
		ForceSecure: cfg.Session.CookieSecure,
		TrustProxy:  cfg.Session.TrustProxy,
	}, log)
	if err != nil {
		return nil, err
	}

	v, err := view.New(tr, func(_ http.ResponseWriter, r *http.Request) view.Globals {
		s := session.FromContext(r.Context())
		g := view.Globals{CSRFToken: s.CSRFToken()}
		if p, ok := s.Principal(); ok {
			g.Principal = &p
		}
		return g
	}, log)
	if err != nil {
		return nil, err
	}
	deny := middleware.ErrorWriter(v.Error)

	// Repos
	usersRepo := sqlstore.NewUsersRepo(opts.DB)
	animalsRepo := sqlstore.NewAnimalsRepo(opts.DB)
	recordsRepo := sqlstore.NewRecordsRepo(opts.DB)
	pharmacyRepo := sqlstore.NewPharmacyRepo(opts.DB)
	mediaRepo := sqlstore.NewMediaRepo(opts.DB)
	chartRepo := sqlstore.NewChartRepo(opts.DB)

	// Services por módulo
	usersSvc := users.NewService(usersRepo)
	animalsSvc := animals.NewService(animalsRepo)
	recordsSvc := records.NewService(recordsRepo, animalsSvc)
	pharmacySvc := pharmacy.NewService(pharmacyRepo, animalsSvc)
	mediaSvc := media.NewService(mediaRepo, animalsSvc)
	chartSvc := chart.NewService(chartRepo, animalsSvc, recordsSvc, pharmacySvc, mediaSvc)
	pages := chart.NewPages(chartSvc, v)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if cfg.Session.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Observe(log, m))
	r.Use(middleware.Recover(log, deny))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes, deny))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", m.Handler())
	r.Handle("/static/*", view.StaticHandler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		v.Error(w, r, http.StatusNotFound, "error.not_found")
	})

	limiter := middleware.NewRateLimiter(cfg.RateLimit.AuthRequestsPerMinute, cfg.RateLimit.AuthBurst)

	// Todo lo que usa sesión.
	r.Group(func(r chi.Router) {
		r.Use(sessions.LoadAndSave)
		r.Use(middleware.AuthContext)
		r.Use(middleware.CSRF(sessions, deny))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			p, ok := middleware.GetPrincipal(r.Context())
			if !ok {
				http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
				return
			}
			http.Redirect(w, r, users.HomePath(p), http.StatusSeeOther)
		})

		r.Route("/auth", func(r chi.Router) {
			users.RegisterRoutes(r, usersSvc, sessions, v, m, log, limiter.Middleware(deny))
		})

		r.Route("/user", func(r chi.Router) {
			r.Use(middleware.RequireRole(deny, auth.RoleViewer, auth.RoleVeterinary, auth.RoleAdmin))
			animals.RegisterViewerRoutes(r, animalsSvc, v)
			pages.RegisterViewerRoutes(r)
			media.RegisterViewerRoutes(r, mediaSvc, v, pages, m)
		})

		r.Route("/vet", func(r chi.Router) {
			r.Use(middleware.RequireRole(deny, auth.RoleVeterinary, auth.RoleAdmin))
			animals.RegisterVetRoutes(r, animalsSvc, v, pages, m, middleware.RequireVerified(usersSvc, deny))
			records.RegisterRoutes(r, recordsSvc, v, pages, m)
			pharmacy.RegisterRoutes(r, pharmacySvc, v, pages, m)
			media.RegisterVetRoutes(r, mediaSvc, v, pages, m)
			pages.RegisterVetRoutes(r)
		})
	})

	return &App{Handler: r, Sessions: sessions}, nil
}

// Server arma el http.Server con los timeouts de config.
func Server(cfg config.ServerConfig, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Address(),
		Handler:           h,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}
