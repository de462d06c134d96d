// Package httpapi exposes the component, composite and machine
// operations over a JSON HTTP API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/s8r-framework/s8r/internal/logging"
	"github.com/s8r-framework/s8r/pkg/domain"
	"github.com/s8r-framework/s8r/pkg/services"
)

// Server wires the application services into HTTP handlers.
type Server struct {
	components *services.ComponentService
	machines   *services.MachineService
	flow       *services.DataFlowService
	logger     *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for request handling.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates the API server. The data-flow service may be nil,
// which disables the data endpoints.
func NewServer(components *services.ComponentService, machines *services.MachineService, flow *services.DataFlowService, opts ...Option) *Server {
	s := &Server{
		components: components,
		machines:   machines,
		flow:       flow,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the chi router for the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/components", func(r chi.Router) {
			r.Post("/", s.handleCreateComponent)
			r.Get("/", s.handleListComponents)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetComponent)
				r.Delete("/", s.handleDeleteComponent)
				r.Get("/children", s.handleListChildren)
				r.Post("/children", s.handleCreateChild)
				r.Post("/activate", s.componentOp(s.components.ActivateComponent))
				r.Post("/deactivate", s.componentOp(s.components.DeactivateComponent))
				r.Post("/terminate", s.componentOp(s.components.TerminateComponent))
				r.Post("/transition", s.handleTransition)
				r.Post("/data", s.handlePublishData)
			})
		})

		r.Route("/composites", func(r chi.Router) {
			r.Post("/", s.handleCreateComposite)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetComposite)
				r.Post("/components", s.handleAddToComposite)
				r.Post("/connections", s.handleConnect)
				r.Post("/activate", s.componentOp(s.components.ActivateComposite))
				r.Post("/deactivate", s.componentOp(s.components.DeactivateComposite))
				r.Post("/terminate", s.componentOp(s.components.TerminateComposite))
			})
		})

		r.Route("/machines", func(r chi.Router) {
			r.Post("/", s.handleCreateMachine)
			r.Get("/", s.handleListMachines)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetMachine)
				r.Delete("/", s.handleDeleteMachine)
				r.Post("/composites", s.handleAddCompositeToMachine)
				r.Post("/initialize", s.machineOp(s.machines.Initialize))
				r.Post("/start", s.machineOp(s.machines.Start))
				r.Post("/stop", s.machineOp(s.machines.Stop))
				r.Post("/pause", s.machineOp(s.machines.Pause))
				r.Post("/resume", s.machineOp(s.machines.Resume))
				r.Post("/reset", s.machineOp(s.machines.ResetFromError))
				r.Post("/destroy", s.machineOp(s.machines.Destroy))
			})
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// pathID parses the {id} URL parameter into a component identity.
func pathID(r *http.Request) (domain.ComponentID, error) {
	return domain.ParseComponentID(chi.URLParam(r, "id"), "")
}

func (s *Server) componentOp(op func(ctx context.Context, id domain.ComponentID) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := op(r.Context(), id); err != nil {
			s.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) machineOp(op func(ctx context.Context, id domain.ComponentID) error) http.HandlerFunc {
	return s.componentOp(op)
}

// writeServiceError maps domain errors onto HTTP status codes: unknown
// IDs to 404, rejected operations and transitions to 409.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var transitionErr *domain.InvalidStateTransitionError
	var machineErr *domain.InvalidMachineTransitionError
	var opErr *domain.InvalidOperationError

	switch {
	case errors.Is(err, domain.ErrComponentNotFound),
		errors.Is(err, domain.ErrMachineNotFound),
		errors.Is(err, domain.ErrConnectionNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.As(err, &transitionErr),
		errors.As(err, &machineErr),
		errors.As(err, &opErr),
		errors.Is(err, domain.ErrDuplicateComponent):
		writeError(w, http.StatusConflict, err)
	default:
		s.logger.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
