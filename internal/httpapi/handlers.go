package httpapi

import (
	"errors"
	"net/http"

	"github.com/s8r-framework/s8r/pkg/domain"
)

var (
	errUnknownState         = errors.New("unknown lifecycle state")
	errUnknownCompositeType = errors.New("unknown composite type")
	errDataFlowDisabled     = errors.New("data flow is not enabled")
)

type createComponentRequest struct {
	Reason string `json:"reason"`
	Type   string `json:"type,omitempty"`
}

type createCompositeRequest struct {
	Reason string `json:"reason"`
	Type   string `json:"type"`
}

type transitionRequest struct {
	State  string `json:"state"`
	Reason string `json:"reason,omitempty"`
}

type addMemberRequest struct {
	ComponentID string `json:"component_id"`
}

type connectRequest struct {
	SourceID    string `json:"source_id"`
	TargetID    string `json:"target_id"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

type createMachineRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`
}

type addCompositeRequest struct {
	CompositeID string `json:"composite_id"`
}

type publishDataRequest struct {
	Channel string         `json:"channel"`
	Data    map[string]any `json:"data"`
}

func (s *Server) handleCreateComponent(w http.ResponseWriter, r *http.Request) {
	var req createComponentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var (
		c   *domain.Component
		err error
	)
	if req.Type == "" {
		c, err = s.components.CreateComponent(r.Context(), req.Reason)
	} else {
		c, err = s.components.CreateComponentOfType(r.Context(), req.Reason, req.Type)
	}
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c.Snapshot())
}

func (s *Server) handleListComponents(w http.ResponseWriter, r *http.Request) {
	list, err := s.components.ListComponents(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	out := make([]domain.ComponentSnapshot, 0, len(list))
	for _, c := range list {
		out = append(out, c.Snapshot())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetComponent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	c, err := s.components.GetComponent(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Server) handleDeleteComponent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.components.DeleteComponent(r.Context(), id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListChildren(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	children, err := s.components.ListChildren(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	out := make([]domain.ComponentSnapshot, 0, len(children))
	for _, c := range children {
		out = append(out, c.Snapshot())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateChild(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req createComponentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	child, err := s.components.CreateChildComponent(r.Context(), id, req.Reason)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, child.Snapshot())
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req transitionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	next := domain.State(req.State)
	if !next.Valid() {
		writeError(w, http.StatusBadRequest, errUnknownState)
		return
	}
	if err := s.components.TransitionComponent(r.Context(), id, next, req.Reason); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePublishData(w http.ResponseWriter, r *http.Request) {
	if s.flow == nil {
		writeError(w, http.StatusNotImplemented, errDataFlowDisabled)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req publishDataRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.flow.Publish(r.Context(), id, req.Channel, req.Data); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleCreateComposite(w http.ResponseWriter, r *http.Request) {
	var req createCompositeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ct := domain.CompositeType(req.Type)
	if !ct.Valid() {
		writeError(w, http.StatusBadRequest, errUnknownCompositeType)
		return
	}
	composite, err := s.components.CreateComposite(r.Context(), req.Reason, ct)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, composite.Snapshot())
}

func (s *Server) handleGetComposite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	composite, err := s.components.GetComposite(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, composite.Snapshot())
}

func (s *Server) handleAddToComposite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req addMemberRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	childID, err := domain.ParseComponentID(req.ComponentID, "")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.components.AddToComposite(r.Context(), id, childID); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req connectRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sourceID, err := domain.ParseComponentID(req.SourceID, "")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	targetID, err := domain.ParseComponentID(req.TargetID, "")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	conn, err := s.components.ConnectComponents(r.Context(), id, sourceID, targetID, domain.ConnectionType(req.Type), req.Description)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, conn.Snapshot())
}

func (s *Server) handleCreateMachine(w http.ResponseWriter, r *http.Request) {
	var req createMachineRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	m, err := s.machines.CreateMachine(r.Context(), domain.MachineType(req.Type), req.Name, req.Description, req.Version)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m.Snapshot())
}

func (s *Server) handleListMachines(w http.ResponseWriter, r *http.Request) {
	list, err := s.machines.ListMachines(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	out := make([]domain.MachineSnapshot, 0, len(list))
	for _, m := range list {
		out = append(out, m.Snapshot())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetMachine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	m, err := s.machines.GetMachine(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m.Snapshot())
}

func (s *Server) handleDeleteMachine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.machines.DeleteMachine(r.Context(), id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddCompositeToMachine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req addCompositeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	compositeID, err := domain.ParseComponentID(req.CompositeID, "")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.machines.AddComposite(r.Context(), id, compositeID); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
