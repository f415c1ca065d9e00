package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	domain "github.com/bryanwahyu/reason3/internal/domain/analysis"
	"github.com/bryanwahyu/reason3/internal/domain/chat"
	"github.com/bryanwahyu/reason3/internal/middleware"
)

// MaxBodyBytes caps request bodies; screenshots arrive base64 encoded.
const MaxBodyBytes = 10 << 20

// Analyzer is one analysis flavor as seen by the HTTP layer.
type Analyzer interface {
	Analyze(ctx context.Context, req domain.Request) domain.Result
}

// Assistant answers follow-up questions about an audit.
type Assistant interface {
	Reply(ctx context.Context, req chat.Request) chat.Reply
}

// History reads the audit trail.
type History interface {
	History(ctx context.Context, flavor domain.Flavor, page, pageSize int) (*domain.PaginatedResult, error)
	Get(ctx context.Context, id string) (*domain.Record, error)
}

type Options struct {
	Claims         Analyzer
	Accessibility  Analyzer
	Chat           Assistant
	History        History
	Logger         *zap.Logger
	APIKeys        map[string]string
	AllowedOrigins []string
	Limiter        middleware.Limiter
	Checkers       map[string]middleware.HealthChecker
}

type Router struct {
	claims  Analyzer
	audit   Analyzer
	chat    Assistant
	history History
	logger  *zap.Logger
}

func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{claims: opts.Claims, audit: opts.Accessibility, chat: opts.Chat, history: opts.History, logger: logger}
	mux := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(chimw.RequestID)
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.LoggingMiddleware(logger))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Analysis-Status", "X-Analysis-ID"},
		MaxAge:         300,
	}))
	if len(opts.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	}
	if opts.Limiter != nil {
		mux.Use(middleware.RateLimitMiddleware(opts.Limiter, logger))
	}

	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Get("/healthz", middleware.HealthHandler(opts.Checkers))
	mux.Get("/readyz", middleware.ReadinessHandler)
	mux.Get("/livez", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/api", func(rt chi.Router) {
		if r.claims != nil {
			rt.Post("/analyze", r.wrap(r.handleAnalyze))
		}
		if r.audit != nil {
			rt.Post("/audit", r.wrap(r.handleAudit))
		}
		if r.chat != nil {
			rt.Post("/chat", r.wrap(r.handleChat))
		}
		if r.history != nil {
			rt.Get("/analyses", r.wrap(r.handleList))
			rt.Get("/analyses/{id}", r.wrap(r.handleGet))
		}
	})

	return mux
}

// badRequest marks client input errors.
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		req.Body = http.MaxBytesReader(w, req.Body, MaxBodyBytes)
		err := h(w, req)
		if err == nil {
			return
		}
		var (
			bad      badRequest
			tooLarge *http.MaxBytesError
		)
		switch {
		case errors.As(err, &bad):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": bad.msg})
		case errors.As(err, &tooLarge):
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
		case errors.Is(err, domain.ErrNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		default:
			r.logger.Error("request failed", zap.String("path", req.URL.Path), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(req *http.Request, v any) error {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return badRequest{msg: "invalid JSON body"}
	}
	return nil
}

func writeResult(w http.ResponseWriter, res domain.Result) error {
	middleware.RecordAnalysis(string(res.Status))
	w.Header().Set("X-Analysis-Status", string(res.Status))
	w.Header().Set("X-Analysis-ID", res.ID)
	w.Header().Set("Server-Timing", "model;dur="+strconv.FormatInt(res.Duration.Milliseconds(), 10))
	writeJSON(w, http.StatusOK, res.Report)
	return nil
}

// POST /api/analyze
// Body: {"content": "...", "type": "text|image", "imageData": "data:image/...", "url": "..."}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Content   string `json:"content"`
		Type      string `json:"type"`
		ImageData string `json:"imageData"`
		URL       string `json:"url"`
	}
	if err := decode(req, &body); err != nil {
		return err
	}
	body.Content = middleware.SanitizeString(body.Content)
	body.URL = strings.TrimSpace(body.URL)
	if body.Content == "" && body.ImageData == "" && body.URL == "" {
		return badRequest{msg: "No content provided"}
	}
	if body.URL != "" {
		if err := middleware.ValidateURL(body.URL); err != nil {
			return badRequest{msg: err.Error()}
		}
	}
	if err := middleware.ValidateImageDataURL(body.ImageData); err != nil {
		return badRequest{msg: err.Error()}
	}

	res := r.claims.Analyze(req.Context(), domain.Request{
		Content:   body.Content,
		MediaType: domain.ParseMediaType(body.Type),
		ImageData: body.ImageData,
		URL:       body.URL,
	})
	return writeResult(w, res)
}

// POST /api/audit
// Body: {"url": "...", "rawHtml": "...", "screenshotBase64": "...", "personas": ["VISUAL"]}
func (r *Router) handleAudit(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		URL        string   `json:"url"`
		RawHTML    string   `json:"rawHtml"`
		Screenshot string   `json:"screenshotBase64"`
		Personas   []string `json:"personas"`
	}
	if err := decode(req, &body); err != nil {
		return err
	}
	body.URL = strings.TrimSpace(body.URL)
	if body.URL == "" && strings.TrimSpace(body.RawHTML) == "" && body.Screenshot == "" {
		return badRequest{msg: "No content provided"}
	}
	if body.URL != "" {
		if err := middleware.ValidateURL(body.URL); err != nil {
			return badRequest{msg: err.Error()}
		}
	}

	ar := domain.Request{
		Content:   body.RawHTML,
		MediaType: domain.MediaText,
		URL:       body.URL,
		Personas:  domain.ParsePersonas(body.Personas),
	}
	if body.Screenshot != "" {
		shot := body.Screenshot
		if !strings.HasPrefix(shot, "data:") {
			shot = "data:image/png;base64," + shot
		}
		if err := middleware.ValidateImageDataURL(shot); err != nil {
			return badRequest{msg: err.Error()}
		}
		ar.MediaType = domain.MediaImage
		ar.ImageData = shot
	}
	return writeResult(w, r.audit.Analyze(req.Context(), ar))
}

// POST /api/chat
// Body: {"url": "...", "issues": [...], "history": [{"role": "user|model", "text": "..."}], "message": "..."}
func (r *Router) handleChat(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		URL     string         `json:"url"`
		Issues  []domain.Issue `json:"issues"`
		History []chat.Message `json:"history"`
		Message string         `json:"message"`
	}
	if err := decode(req, &body); err != nil {
		return err
	}
	body.Message = middleware.SanitizeString(body.Message)
	if body.Message == "" {
		return badRequest{msg: "message is required"}
	}
	for i, m := range body.History {
		if !m.Role.Valid() {
			return badRequest{msg: "history role must be user or model"}
		}
		body.History[i].Text = middleware.SanitizeString(m.Text)
	}

	reply := r.chat.Reply(req.Context(), chat.Request{
		URL:      strings.TrimSpace(body.URL),
		Issues:   body.Issues,
		History:  body.History,
		Question: body.Message,
	})
	w.Header().Set("X-Analysis-Status", string(reply.Status))
	writeJSON(w, http.StatusOK, reply)
	return nil
}

// GET /api/analyses?page=&page_size=&flavor=
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))

	var flavor domain.Flavor
	switch f := domain.Flavor(q.Get("flavor")); f {
	case "", domain.FlavorClaims, domain.FlavorAccessibility:
		flavor = f
	default:
		return badRequest{msg: "unknown flavor: " + string(f)}
	}

	list, err := r.history.History(req.Context(), flavor, page, middleware.ValidateLimit(size))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, list)
	return nil
}

// GET /api/analyses/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	rec, err := r.history.Get(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, rec)
	return nil
}

// NewServer applies the configured timeouts.
func NewServer(addr string, h http.Handler, read, write time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       read,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      write,
		IdleTimeout:       60 * time.Second,
	}
}
