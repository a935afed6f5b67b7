package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atrium-access/atrium-core/internal/identity"
)

// handleListRFID returns all RFID identities.
func (s *Server) handleListRFID(w http.ResponseWriter, r *http.Request) {
	ids, err := s.rfid.List(r.Context())
	if err != nil {
		writeInternalError(w, "failed to list rfid identities")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"identities": ids, "count": len(ids)})
}

// handleCreateRFID registers a new RFID identity.
func (s *Server) handleCreateRFID(w http.ResponseWriter, r *http.Request) {
	var id identity.RFIDIdentity
	if err := json.NewDecoder(r.Body).Decode(&id); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.rfid.Create(r.Context(), &id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, id)
}

// handleGetRFID returns a single RFID identity by uid.
func (s *Server) handleGetRFID(w http.ResponseWriter, r *http.Request) {
	id, err := s.rfid.Get(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, id)
}

// handleUpdateRFID applies a partial update to an RFID identity.
func (s *Server) handleUpdateRFID(w http.ResponseWriter, r *http.Request) {
	var update identity.RFIDUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	id, err := s.rfid.Update(r.Context(), chi.URLParam(r, "uid"), update)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, id)
}

// handleDeleteRFID removes an RFID identity.
func (s *Server) handleDeleteRFID(w http.ResponseWriter, r *http.Request) {
	if err := s.rfid.Delete(r.Context(), chi.URLParam(r, "uid")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListFace returns all face identities.
func (s *Server) handleListFace(w http.ResponseWriter, r *http.Request) {
	ids, err := s.face.List(r.Context())
	if err != nil {
		writeInternalError(w, "failed to list face identities")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"identities": ids, "count": len(ids)})
}

// handleCreateFace registers a new face identity.
func (s *Server) handleCreateFace(w http.ResponseWriter, r *http.Request) {
	var id identity.FaceIdentity
	if err := json.NewDecoder(r.Body).Decode(&id); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.face.Create(r.Context(), &id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, id)
}

// handleGetFace returns a single face identity by username.
func (s *Server) handleGetFace(w http.ResponseWriter, r *http.Request) {
	id, err := s.face.Get(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, id)
}

// handleUpdateFace applies a partial update to a face identity.
func (s *Server) handleUpdateFace(w http.ResponseWriter, r *http.Request) {
	var update identity.FaceUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	id, err := s.face.Update(r.Context(), chi.URLParam(r, "username"), update)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, id)
}

// handleDeleteFace removes a face identity.
func (s *Server) handleDeleteFace(w http.ResponseWriter, r *http.Request) {
	if err := s.face.Delete(r.Context(), chi.URLParam(r, "username")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAddFaceClass adds a recognition class membership to a face identity.
func (s *Server) handleAddFaceClass(w http.ResponseWriter, r *http.Request) {
	classID, ok := parseClassID(w, r)
	if !ok {
		return
	}

	id, err := s.face.AddClass(r.Context(), chi.URLParam(r, "username"), classID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, id)
}

// handleRemoveFaceClass removes a recognition class membership from a face identity.
func (s *Server) handleRemoveFaceClass(w http.ResponseWriter, r *http.Request) {
	classID, ok := parseClassID(w, r)
	if !ok {
		return
	}

	id, err := s.face.RemoveClass(r.Context(), chi.URLParam(r, "username"), classID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, id)
}

// parseClassID extracts the classID route parameter, writing a 400 on failure.
func parseClassID(w http.ResponseWriter, r *http.Request) (int, bool) {
	classID, err := strconv.Atoi(chi.URLParam(r, "classID"))
	if err != nil {
		writeBadRequest(w, "class id must be an integer")
		return 0, false
	}
	return classID, true
}
