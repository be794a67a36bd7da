package routes

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/khauni/homepage/api/controllers"
	"github.com/khauni/homepage/api/middleware"
	"github.com/khauni/homepage/internal/activity"
	"github.com/khauni/homepage/internal/art"
	"github.com/khauni/homepage/internal/chat"
	"github.com/khauni/homepage/internal/nowplaying"
	"github.com/khauni/homepage/internal/printer"
	"github.com/khauni/homepage/internal/steam"
	"github.com/khauni/homepage/internal/wishlist"
	"github.com/khauni/homepage/pkg/config"
	"github.com/khauni/homepage/pkg/logger"
	"github.com/khauni/homepage/pkg/metrics"
	"github.com/khauni/homepage/pkg/redis"
)

// Deps is everything the router hands to controllers. Optional services are nil
// when their configuration is missing.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Gatherer prometheus.Gatherer
	Metrics  *metrics.HTTPMetrics

	Wishlist wishlist.Store
	Activity *activity.Holder
	Art      *art.Service

	NowPlaying *nowplaying.Service
	Steam      *steam.Service
	Printer    *printer.Service
	Chat       *chat.Hub
	Redis      *redis.Client
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.Metrics),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	readiness := map[string]controllers.Pinger{"wishlist": d.Wishlist}
	if d.Redis != nil {
		readiness["redis"] = d.Redis
	} else {
		readiness["redis"] = nil
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy("admin_login", cfg.LoginRateLimit.Window, cfg.LoginRateLimit.Limit)
	loginLimit := middleware.AuthRateLimit(loginPolicy, nil, logg)
	if d.Redis != nil {
		loginLimit = middleware.AuthRateLimit(loginPolicy, d.Redis, logg)
	}
	adminOnly := middleware.AdminAuth(cfg.Admin, logg)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.With(loginLimit).Post("/admin/login", controllers.AdminLogin(cfg.Admin, logg))
		r.With(adminOnly).Get("/admin/ping", controllers.AdminPing())

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistList(d.Wishlist, logg))
			r.Get("/{id}", controllers.WishlistGet(d.Wishlist, logg))

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Post("/", controllers.WishlistCreate(d.Wishlist, logg))
				r.Put("/{id}", controllers.WishlistUpdate(d.Wishlist, logg))
				r.Patch("/{id}", controllers.WishlistUpdate(d.Wishlist, logg))
				r.Delete("/{id}", controllers.WishlistDelete(d.Wishlist, logg))
			})
		})

		r.Get("/activity", controllers.ActivityGet(d.Activity))
		r.With(adminOnly).Put("/activity", controllers.ActivityUpdate(d.Activity, logg))

		r.Get("/art", controllers.ArtGet(d.Art))
		r.With(adminOnly).Put("/art", controllers.ArtUpdate(d.Art, logg))

		if d.NowPlaying != nil {
			r.Get("/spotify/now-playing", controllers.SpotifyNowPlaying(d.NowPlaying, logg))
		} else {
			r.Get("/spotify/now-playing", controllers.NotConfigured("spotify", logg))
		}

		if d.Steam != nil {
			r.Get("/steam/player-summary", controllers.SteamPlayerSummary(d.Steam, logg))
			r.Get("/steam/recently-played", controllers.SteamRecentlyPlayed(d.Steam, logg))
		} else {
			r.Get("/steam/player-summary", controllers.NotConfigured("steam", logg))
			r.Get("/steam/recently-played", controllers.NotConfigured("steam", logg))
		}

		if d.Printer != nil {
			r.Get("/printer/status", controllers.PrinterStatus(d.Printer, logg))
		} else {
			r.Get("/printer/status", controllers.NotConfigured("printer", logg))
		}
	})

	if d.Chat != nil {
		r.Get("/ws/chat", d.Chat.ServeHTTP)
	}

	if root := cfg.Static.WebRoot; root != "" {
		if info, err := os.Stat(root); err == nil && info.IsDir() {
			r.Handle("/*", http.FileServer(http.Dir(root)))
		}
	}

	return r
}
