package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/investify/onboard/internal/auth"
	"github.com/investify/onboard/internal/handler"
	mw "github.com/investify/onboard/internal/middleware"
)

func New(
	log *zap.Logger,
	jwtSecret string,
	uploadDir string,
	uploadRPS float64,
	uploadBurst int,
	authH *handler.AuthHandler,
	uploadH *handler.UploadHandler,
	cacheH *handler.CacheHandler,
	kycH *handler.KYCHandler,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Recovery(log))
	r.Use(mw.Logger(log))
	r.Use(mw.CORS)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/health", handler.Health)
		r.Post("/auth/login", authH.Login)
		r.Get("/kyc/config/{submissionId}", kycH.Config)
		r.Get("/forms/slugs", cacheH.Slugs)

		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimit(rate.Limit(uploadRPS), uploadBurst))
			r.Post("/upload", uploadH.Upload)
		})

		// Operator routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(jwtSecret))
			r.Get("/cache-forms", cacheH.Refresh)
			r.Post("/cache-forms", cacheH.Refresh)
			r.Get("/auto-update-cache", cacheH.AutoUpdate)
			r.Post("/auto-update-cache", cacheH.AutoUpdate)
		})
	})

	// Stored proof documents
	fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir)))
	r.Get("/uploads/*", fs.ServeHTTP)

	return r
}
