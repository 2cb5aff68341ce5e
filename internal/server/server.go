package server

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"pixgenie/internal/gallery"
	"pixgenie/internal/llm"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	allowedMethods = []string{"GET", "OPTIONS", "PATCH", "DELETE", "POST", "PUT"}
	allowedHeaders = []string{
		"X-CSRF-Token", "X-Requested-With", "Accept", "Accept-Version", "Content-Length",
		"Content-MD5", "Content-Type", "Date", "X-Api-Version",
	}
)

type Options struct {
	// NewSession builds the gallery session for a new browser.
	NewSession func() *gallery.Session
	// Extractor backs the keyword API. The API is not mounted when nil.
	Extractor      llm.KeywordExtractor
	KeywordCount   int
	AllowedOrigins []string
	// SessionTTL and MaxSessions bound the session store. Zero picks the
	// defaults of 30 minutes and 1000 sessions.
	SessionTTL  time.Duration
	MaxSessions int
}

type Server struct {
	sessions     *sessionStore
	extractor    llm.KeywordExtractor
	keywordCount int
	origins      []string
	pages        *template.Template
}

func New(opts Options) (*Server, error) {
	pages, err := template.New("").Funcs(template.FuncMap{
		"altText": altText,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Server{
		sessions:     newSessionStore(opts.NewSession, opts.SessionTTL, opts.MaxSessions),
		extractor:    opts.Extractor,
		keywordCount: opts.KeywordCount,
		origins:      opts.AllowedOrigins,
		pages:        pages,
	}, nil
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, requestLogger)

	r.Get("/", s.handleIndex)
	r.Post("/generate", s.handleGenerate)
	r.Get("/preview/{index}", s.handlePreview)
	r.Post("/preview/close", s.handleClosePreview)
	r.Get("/download/{index}", s.handleDownload)

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: allowedMethods,
			AllowedHeaders: allowedHeaders,
		}).Handler)

		r.Get("/health", s.handleHealth)
		if s.extractor != nil {
			r.Post("/generate", s.handleExtractKeywords)
			r.Post("/generate/", s.handleExtractKeywords)
		}
	})

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("Request",
			"id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", time.Since(start).Round(time.Millisecond),
		)
	})
}
