package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ClareAI/astra-meeting-service/internal/cache"
	"github.com/ClareAI/astra-meeting-service/internal/domain"
	"github.com/ClareAI/astra-meeting-service/internal/repository"
)

// AgentHandler serves agent CRUD for the dashboard. Every operation is
// scoped to the authenticated owner.
type AgentHandler struct {
	repos  repository.Manager
	agents *cache.AgentCache
}

// NewAgentHandler creates an agent handler.
func NewAgentHandler(repos repository.Manager, agents *cache.AgentCache) *AgentHandler {
	return &AgentHandler{repos: repos, agents: agents}
}

func (h *AgentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req domain.CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	agent, err := h.repos.Agents().Create(r.Context(), userID, &req)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, agent)
}

func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	agents, err := h.repos.Agents().GetByUserID(r.Context(), userID)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agents)
}

func (h *AgentHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	id := mux.Vars(r)["id"]

	agent, err := h.repos.Agents().GetByIDForUser(r.Context(), id, userID)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

func (h *AgentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	id := mux.Vars(r)["id"]

	var req domain.UpdateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	agent, err := h.repos.Agents().Update(r.Context(), id, userID, &req)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	h.agents.Invalidate(id)
	writeJSON(w, http.StatusOK, agent)
}

func (h *AgentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	id := mux.Vars(r)["id"]

	if err := h.repos.Agents().Delete(r.Context(), id, userID); err != nil {
		writeRepoError(w, err)
		return
	}
	h.agents.Invalidate(id)
	writeOK(w)
}

// writeRepoError maps repository errors to HTTP responses.
func writeRepoError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found")
	case domain.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "Internal error")
	}
}
