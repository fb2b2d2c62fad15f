package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"notaspese/internal/core"
	applog "notaspese/internal/log"
	"notaspese/internal/middleware/ratelimit"
	"notaspese/internal/middleware/security"
	"notaspese/internal/middleware/trace"
	"notaspese/internal/services"
	appweb "notaspese/web"
)

// Ledger is what the handlers need from the ledger service.
type Ledger interface {
	Snapshot() services.Snapshot
	AddExpense(ctx context.Context, in services.NewExpense) (core.Entry, error)
	RemoveExpense(ctx context.Context, index int) (core.Entry, error)
	StartNewWeek(ctx context.Context) (services.Snapshot, error)
	ExportSpreadsheet(ctx context.Context) (services.Download, error)
	ExportPhotoSheet(ctx context.Context) (services.Download, error)
}

var _ Ledger = (*services.LedgerService)(nil)

// ReadyCheck reports whether a dependency can serve requests.
type ReadyCheck func(ctx context.Context) error

// ReadyStat reports a dependency's runtime figures for /readyz. An error
// marks the service not ready.
type ReadyStat func(ctx context.Context) (any, error)

type Config struct {
	Addr        string
	Ledger      Ledger
	Logger      *applog.Logger
	ReadyChecks map[string]ReadyCheck
	ReadyStats  map[string]ReadyStat
	RateLimit   ratelimit.Config
	// PhotosEnabled shows the photo field in the form.
	PhotosEnabled bool
}

type Server struct {
	http.Server
	router        *mux.Router
	templates     *template.Template
	ledger        Ledger
	logger        *applog.Logger
	readyChecks   map[string]ReadyCheck
	readyStats    map[string]ReadyStat
	photosEnabled bool

	rateLimiter *ratelimit.Limiter
	trace       *trace.Middleware
	startedAt   time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	r := mux.NewRouter()
	clientIP := security.NewClientIP()

	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      2 * time.Minute,
			IdleTimeout:       60 * time.Second,
		},
		router:        r,
		ledger:        cfg.Ledger,
		logger:        logger,
		readyChecks:   cfg.ReadyChecks,
		readyStats:    cfg.ReadyStats,
		photosEnabled: cfg.PhotosEnabled,
		rateLimiter:   ratelimit.NewLimiter(cfg.RateLimit),
		trace:         trace.NewMiddleware(logger, clientIP.Extract),
		startedAt:     time.Now(),
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Error("Failed parsing templates", applog.FieldError, err)
	} else {
		s.templates = t
	}

	r.Use(s.trace.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.rateLimiter.Middleware(clientIP.Extract, s.handleRateLimited))

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.PathPrefix("/static/").Handler(security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/ui/ledger", s.handleLedgerPartial).Methods(http.MethodGet)
	r.HandleFunc("/entries", s.handleCreateEntry).Methods(http.MethodPost)
	r.HandleFunc("/entries/{index:[0-9]+}/delete", s.handleDeleteEntry).Methods(http.MethodPost)
	r.HandleFunc("/week/new", s.handleNewWeek).Methods(http.MethodPost)
	r.HandleFunc("/export/spreadsheet", s.handleExportSpreadsheet).Methods(http.MethodGet)
	r.HandleFunc("/export/photos", s.handleExportPhotos).Methods(http.MethodGet)

	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError("").Write(w)
	})

	return s
}

// Shutdown stops the rate limiter cleanup and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldPath, r.URL.Path,
		applog.FieldComponent, applog.ComponentSecurity)
	ErrorResponse(http.StatusTooManyRequests, "Troppe richieste, riprova tra poco").Write(w)
}
