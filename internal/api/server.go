package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/officemath/internal/config"
	"github.com/dgallion1/officemath/internal/convert"
	"github.com/dgallion1/officemath/internal/mathrender"
	"github.com/dgallion1/officemath/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxJSONBytes bounds request bodies of the synchronous endpoints.
const maxJSONBytes = 8 << 20

// Server is the HTTP API server for officemath.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	conv         *convert.Converter
	stats        *mathrender.Stats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. stats may be nil.
func NewServer(orch *pipeline.Orchestrator, conv *convert.Converter, stats *mathrender.Stats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		conv:         conv,
		stats:        stats,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints when an API key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/convert", s.handleConvert)
		r.Post("/api/convert/batch", s.handleBatchConvert)
		r.Get("/api/convert/{jobID}/status", s.handleConvertStatus)
		r.Get("/api/convert/{jobID}/result", s.handleConvertResult)

		r.Post("/api/office/prepare", s.handleOfficePrepare)
		r.Post("/api/office/apply", s.handleOfficeApply)
		r.Post("/api/office/render", s.handleOfficeRender)

		r.Post("/api/markdown/to-html", s.handleMarkdownToHTML)
		r.Post("/api/markdown/from-html", s.handleMarkdownFromHTML)

		r.Post("/api/clipboard/wrap", s.handleClipboardWrap)
		r.Post("/api/clipboard/extract", s.handleClipboardExtract)

		r.Get("/api/call", s.handleListOperations)
		r.Post("/api/call/{op}", s.handleCall)

		r.Get("/api/stats/math", s.handleMathStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
