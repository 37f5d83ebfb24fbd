package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/iwvelando/consultorio/internal/auth"
	"github.com/iwvelando/consultorio/internal/costs"
	"github.com/iwvelando/consultorio/internal/importer"
	"github.com/iwvelando/consultorio/internal/records"
	"github.com/iwvelando/consultorio/internal/users"
	"github.com/iwvelando/consultorio/pkg/constants"
	"github.com/iwvelando/consultorio/pkg/validation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Options wires the handler to its collaborators.
type Options struct {
	Logger         *zap.Logger
	Users          *users.Registry
	Records        *records.Registry
	Tokens         *auth.JWTManager
	Calculator     *costs.Calculator
	Importer       *importer.Importer
	MaxUploadSize  int64
	RequestTimeout time.Duration
	MetricsPath    string
	Version        string
	// Metrics receives the server collectors and is exposed at MetricsPath.
	// A fresh registry is used when nil.
	Metrics *prometheus.Registry
	Now     func() time.Time
}

type handler struct {
	logger        *zap.Logger
	users         *users.Registry
	records       *records.Registry
	tokens        *auth.JWTManager
	calc          *costs.Calculator
	importer      *importer.Importer
	metrics       *metrics
	maxUploadSize int64
	version       string
	now           func() time.Time
}

// NewHandler constructs the HTTP handler that serves the practice API.
func NewHandler(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	maxUploadSize := opts.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	calc := opts.Calculator
	if calc == nil {
		calc = costs.NewCalculator(logger, costs.DefaultParameters())
	}

	imp := opts.Importer
	if imp == nil {
		imp = importer.New(logger, now)
	}

	reg := opts.Metrics
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	metricsPath := opts.MetricsPath
	if metricsPath == "" {
		metricsPath = constants.DefaultMetricsPath
	}

	if opts.Records != nil && opts.Users != nil {
		opts.Records.Reserve(opts.Users.Path())
	}

	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout()
	}

	h := &handler{
		logger:        logger,
		users:         opts.Users,
		records:       opts.Records,
		tokens:        opts.Tokens,
		calc:          calc,
		importer:      imp,
		metrics:       newMetrics(reg),
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		now:           now,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.metrics.instrument)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, metricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", h.handleVersion)
		r.Post("/auth/register", h.handleRegister)
		r.Post("/auth/login", h.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)

			r.Get("/me", h.handleMe)

			r.Route("/consultas", func(r chi.Router) {
				r.Get("/", h.handleListVisits)
				r.Post("/", h.handleAddVisit)
				r.Delete("/", h.handleDeleteAllVisits)
				r.Put("/{index}", h.handleUpdateVisit)
				r.Delete("/{index}", h.handleDeleteVisit)
			})
			r.Route("/equipos", func(r chi.Router) {
				r.Get("/", h.handleListEquipment)
				r.Post("/", h.handleAddEquipment)
				r.Delete("/{id}", h.handleDeleteEquipment)
				r.Patch("/{id}", h.handleSetEquipmentActive)
			})
			r.Route("/gastos", func(r chi.Router) {
				r.Get("/", h.handleListExpenses)
				r.Post("/", h.handleAddExpense)
				r.Delete("/{id}", h.handleDeleteExpense)
				r.Patch("/{id}", h.handleSetExpenseActive)
			})

			r.Get("/config", h.handleGetSettings)
			r.Put("/config", h.handleUpdateSettings)

			r.Get("/resumen", h.handleSummary)
			r.Get("/dashboard", h.handleDashboard)
			r.Get("/costos", h.handleCosts)
			r.Get("/reportes", h.handleReport)

			r.Post("/calculadora", h.handleQuote)
			r.Post("/calculadora/profesional", h.handleProfessional)

			r.Post("/importar/preview", h.handleImportPreview)
			r.Post("/importar", h.handleImport)

			r.Get("/exportar", h.handleExport)
		})
	})

	return r
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// decodeJSON reads a JSON body into v. Unknown fields are ignored; an empty
// body leaves v untouched.
func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", validation.ErrInvalidInput, err)
	}
	return nil
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, validation.ErrInvalidInput),
		errors.Is(err, importer.ErrEmptyFile),
		errors.Is(err, importer.ErrUnknownColumn),
		errors.Is(err, users.ErrWeakPassword):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, users.ErrUserNotFound),
		errors.Is(err, users.ErrWrongPassword):
		return http.StatusUnauthorized
	case errors.Is(err, records.ErrNotFound),
		errors.Is(err, records.ErrIndexOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, users.ErrUserExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) respondErr(w http.ResponseWriter, err error, op string) {
	h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("error", msg),
		)
	} else {
		h.logger.Debug("request rejected",
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("error", msg),
		)
	}

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
