package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ClareAI/astra-meeting-service/internal/domain"
	"github.com/ClareAI/astra-meeting-service/internal/repository"
)

// MeetingHandler serves meeting CRUD plus the user-initiated cancel
// transition. Every operation is scoped to the authenticated owner.
type MeetingHandler struct {
	repos repository.Manager
}

// NewMeetingHandler creates a meeting handler.
func NewMeetingHandler(repos repository.Manager) *MeetingHandler {
	return &MeetingHandler{repos: repos}
}

func (h *MeetingHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req domain.CreateMeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The referenced agent must exist and belong to the caller.
	if _, err := h.repos.Agents().GetByIDForUser(r.Context(), req.AgentID, userID); err != nil {
		writeRepoError(w, err)
		return
	}

	meeting, err := h.repos.Meetings().Create(r.Context(), userID, &req)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, meeting)
}

func (h *MeetingHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	meetings, err := h.repos.Meetings().GetByUserID(r.Context(), userID)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meetings)
}

func (h *MeetingHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	id := mux.Vars(r)["id"]

	meeting, err := h.repos.Meetings().GetByIDForUser(r.Context(), id, userID)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meeting)
}

func (h *MeetingHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	id := mux.Vars(r)["id"]

	var req domain.UpdateMeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.AgentID != nil {
		if _, err := h.repos.Agents().GetByIDForUser(r.Context(), *req.AgentID, userID); err != nil {
			writeRepoError(w, err)
			return
		}
	}

	meeting, err := h.repos.Meetings().Update(r.Context(), id, userID, &req)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meeting)
}

func (h *MeetingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	id := mux.Vars(r)["id"]

	if err := h.repos.Meetings().Delete(r.Context(), id, userID); err != nil {
		writeRepoError(w, err)
		return
	}
	writeOK(w)
}

// Cancel moves an upcoming meeting to cancelled. A meeting that already
// started cannot be cancelled; the conditional update catching that race
// is reported as a conflict.
func (h *MeetingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	id := mux.Vars(r)["id"]

	if _, err := h.repos.Meetings().GetByIDForUser(r.Context(), id, userID); err != nil {
		writeRepoError(w, err)
		return
	}

	applied, err := h.repos.Meetings().Transition(r.Context(), id,
		domain.MeetingStatusUpcoming, domain.MeetingStatusCancelled, nil)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	if !applied {
		writeError(w, http.StatusConflict, "Meeting is no longer upcoming")
		return
	}
	writeOK(w)
}
