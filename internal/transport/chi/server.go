package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/glossameta/internal/config"
	"github.com/kailas-cloud/glossameta/internal/domain"
	"github.com/kailas-cloud/glossameta/internal/domain/category"
	"github.com/kailas-cloud/glossameta/internal/domain/selection"
	"github.com/kailas-cloud/glossameta/internal/logger"
	filteruc "github.com/kailas-cloud/glossameta/internal/usecase/filter"
	healthuc "github.com/kailas-cloud/glossameta/internal/usecase/health"
)

// maxBodyBytes caps request bodies; polygons are the largest payload.
const maxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the filter service over HTTP.
type Server struct {
	filter        *filteruc.Service
	health        *healthuc.Service
	mapView       config.MapConfig
	logger        *zap.Logger
	validate      *validator.Validate
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	filter *filteruc.Service,
	health *healthuc.Service,
	mapView config.MapConfig,
	logger *zap.Logger,
) *Server {
	s := &Server{
		filter:   filter,
		health:   health,
		mapView:  mapView,
		logger:   logger,
		validate: validator.New(),
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrSessionNotFound, http.StatusNotFound, ErrorCodeSessionNotFound),
		sentinelHandler(domain.ErrUnknownCategory, http.StatusNotFound, ErrorCodeUnknownCategory),
		sentinelHandler(domain.ErrInvalidRange, http.StatusBadRequest, ErrorCodeInvalidRange),
		sentinelHandler(domain.ErrIndexNotReady, http.StatusServiceUnavailable, ErrorCodeNotReady),
	}
	return s
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r gochi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r gochi.Router) {
		r.Get("/menu", s.GetMenu)
		r.Get("/map", s.GetMap)
		r.Post("/select", s.Select)

		r.Post("/sessions", s.CreateSession)
		r.Route("/sessions/{id}", func(r gochi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Put("/area", s.SelectArea)

			r.Route("/categories/{category}", func(r gochi.Router) {
				r.Delete("/", s.ClearCategory)
				r.Post("/values", s.AddValue)
				r.Delete("/values", s.RemoveValue)
				r.Put("/range", s.SetRange)
				r.Post("/reset", s.ResetCategory)
			})
		})
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// GetMenu handles GET /v1/menu.
func (s *Server) GetMenu(w http.ResponseWriter, r *http.Request) {
	entries, err := s.filter.Menu()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, menuToDTO(entries))
}

// GetMap handles GET /v1/map. With ?session=<id> the markers reflect that
// session; otherwise the initial selection.
func (s *Server) GetMap(w http.ResponseWriter, r *http.Request) {
	var (
		res filteruc.Result
		err error
	)
	if id := r.URL.Query().Get("session"); id != "" {
		res, err = s.filter.Session(r.Context(), id)
	} else {
		var sel selection.Selection
		if sel, err = s.filter.InitialSelection(); err == nil {
			res, err = s.filter.Evaluate(sel)
		}
	}
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mapResponse{
		View: mapViewDTO{
			CenterLat: s.mapView.CenterLat,
			CenterLng: s.mapView.CenterLng,
			Zoom:      s.mapView.Zoom,
		},
		Markers: markersToDTO(res.Markers),
	})
}

// Select handles POST /v1/select.
func (s *Server) Select(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.filter.Evaluate(selection.Reconstruct(req.Categories))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resultToDTO(res))
}

// CreateSession handles POST /v1/sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	res, err := s.filter.CreateSession(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/sessions/"+res.SessionID)
	writeJSON(w, http.StatusCreated, resultToDTO(res))
}

// GetSession handles GET /v1/sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	res, err := s.filter.Session(r.Context(), gochi.URLParam(r, "id"))
	s.respond(w, r, res, err)
}

// DeleteSession handles DELETE /v1/sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.filter.DeleteSession(r.Context(), gochi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddValue handles POST /v1/sessions/{id}/categories/{category}/values.
func (s *Server) AddValue(w http.ResponseWriter, r *http.Request) {
	v, ok := s.decodeValue(w, r)
	if !ok {
		return
	}
	res, err := s.filter.AddValue(r.Context(), gochi.URLParam(r, "id"), gochi.URLParam(r, "category"), v)
	s.respond(w, r, res, err)
}

// RemoveValue handles DELETE /v1/sessions/{id}/categories/{category}/values.
func (s *Server) RemoveValue(w http.ResponseWriter, r *http.Request) {
	v, ok := s.decodeValue(w, r)
	if !ok {
		return
	}
	res, err := s.filter.RemoveValue(r.Context(), gochi.URLParam(r, "id"), gochi.URLParam(r, "category"), v)
	s.respond(w, r, res, err)
}

// SetRange handles PUT /v1/sessions/{id}/categories/{category}/range.
func (s *Server) SetRange(w http.ResponseWriter, r *http.Request) {
	var req rangeRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.filter.SetRange(
		r.Context(), gochi.URLParam(r, "id"), gochi.URLParam(r, "category"), *req.Low, *req.High,
	)
	s.respond(w, r, res, err)
}

// ClearCategory handles DELETE /v1/sessions/{id}/categories/{category}.
func (s *Server) ClearCategory(w http.ResponseWriter, r *http.Request) {
	res, err := s.filter.ClearCategory(r.Context(), gochi.URLParam(r, "id"), gochi.URLParam(r, "category"))
	s.respond(w, r, res, err)
}

// ResetCategory handles POST /v1/sessions/{id}/categories/{category}/reset.
func (s *Server) ResetCategory(w http.ResponseWriter, r *http.Request) {
	res, err := s.filter.ResetCategory(r.Context(), gochi.URLParam(r, "id"), gochi.URLParam(r, "category"))
	s.respond(w, r, res, err)
}

// SelectArea handles PUT /v1/sessions/{id}/area.
func (s *Server) SelectArea(w http.ResponseWriter, r *http.Request) {
	var req areaRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.filter.SelectArea(r.Context(), gochi.URLParam(r, "id"), areaFromDTO(req))
	s.respond(w, r, res, err)
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, res filteruc.Result, err error) {
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resultToDTO(res))
}

// decode reads and validates a JSON body. It writes the error response itself.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, validationMessage(err))
		return false
	}
	return true
}

func (s *Server) decodeValue(w http.ResponseWriter, r *http.Request) (category.Value, bool) {
	var req valueRequest
	if !s.decode(w, r, &req) {
		return category.Value{}, false
	}
	var v category.Value
	if err := json.Unmarshal(req.Value, &v); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "value must be a string or null")
		return category.Value{}, false
	}
	return v, true
}

// validationMessage flattens validator errors into one client-facing line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "validation failed"
	}
	fe := verrs[0]
	if fe.Param() != "" {
		return fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-safe message without exposing internals.
func safeDomainMessage(err error) string {
	var ce *domain.CategoryError
	if errors.As(err, &ce) {
		return ce.Error()
	}
	sentinels := []error{
		domain.ErrSessionNotFound,
		domain.ErrInvalidRange,
		domain.ErrIndexNotReady,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
