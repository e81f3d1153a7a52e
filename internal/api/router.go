package api

import (
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nikhilbhutani/speechgate/internal/api/handlers"
	"github.com/nikhilbhutani/speechgate/internal/api/middleware"
	"github.com/nikhilbhutani/speechgate/internal/audiofs"
	"github.com/nikhilbhutani/speechgate/internal/config"
	"github.com/nikhilbhutani/speechgate/internal/speech"
	"github.com/nikhilbhutani/speechgate/internal/tts"
)

// Deps are the long-lived services the routes are built from. Usage and
// the readiness checks are optional.
type Deps struct {
	Service *speech.Service
	Catalog *speech.Catalog
	Stats   *speech.Stats
	Sweeper audiofs.Trigger
	Usage   handlers.UsageReader
	Checks  map[string]handlers.Pinger
}

type Router struct {
	mux  *chi.Mux
	cfg  *config.Config
	deps Deps

	stop     chan struct{}
	stopOnce sync.Once
}

func NewRouter(cfg *config.Config, deps Deps) *Router {
	return &Router{
		mux:  chi.NewRouter(),
		cfg:  cfg,
		deps: deps,
		stop: make(chan struct{}),
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.Server.CORSOrigins))

	rl := middleware.NewRateLimiter(rt.cfg.Server.RateLimitRPS, rt.cfg.Server.RateLimitBurst)
	go rl.Cleanup(rt.stop)
	r.Use(rl.Limit)

	health := handlers.NewHealthHandler(rt.deps.Stats, rt.deps.Checks)
	r.Get("/", health.Welcome)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	ttsH := handlers.NewTTSHandler(rt.deps.Service, rt.deps.Catalog, rt.deps.Stats, rt.deps.Sweeper, rt.cfg.Audio.URLPrefix)
	usageH := handlers.NewUsageHandler(rt.deps.Usage)
	r.Route("/api/tts", func(r chi.Router) {
		r.Post("/", ttsH.Synthesize)
		r.Get("/voices", ttsH.Voices)
		r.Get("/health", health.Service)
		r.Get("/usage", usageH.Usage)
	})

	prefix := strings.TrimSuffix(rt.cfg.Audio.URLPrefix, "/")
	r.Handle(prefix+"/*", http.StripPrefix(prefix, audioFiles(rt.cfg.Audio.Dir)))

	return r
}

// Close stops the rate limiter's background cleanup.
func (rt *Router) Close() {
	rt.stopOnce.Do(func() { close(rt.stop) })
}

var audioFormats = []tts.Format{tts.FormatMP3, tts.FormatWAV}

// audioFiles serves generated audio without directory listings. The
// content type comes from the engine format, not the host's mime table.
func audioFiles(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		for _, f := range audioFormats {
			if strings.HasSuffix(r.URL.Path, f.Ext()) {
				w.Header().Set("Content-Type", f.ContentType())
				break
			}
		}
		fs.ServeHTTP(w, r)
	})
}
