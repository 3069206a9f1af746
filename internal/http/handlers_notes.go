package http

import (
	"net/http"

	"finbook/internal/core"
)

type noteRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	Pinned  bool     `json:"pinned"`
}

func (req noteRequest) toNote(userID int64) (core.Note, error) {
	n := core.Note{
		UserID:  userID,
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
		Pinned:  req.Pinned,
	}
	if err := n.Validate(); err != nil {
		return core.Note{}, err
	}
	return n, nil
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request, userID int64) {
	notes, err := s.repo.ListNotes(r.Context(), userID)
	if err != nil {
		respondOpError(w, r, err)
		return
	}
	views := make([]noteView, 0, len(notes))
	for _, n := range notes {
		views = append(views, noteToView(n))
	}
	respondData(w, http.StatusOK, views)
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request, userID int64) {
	var req noteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	note, err := req.toNote(userID)
	if err != nil {
		respondOpError(w, r, err)
		return
	}
	if err := s.repo.CreateNote(r.Context(), &note); err != nil {
		respondOpError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, noteToView(note))
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req noteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	note, err := req.toNote(userID)
	if err != nil {
		respondOpError(w, r, err)
		return
	}
	note.ID = id
	if err := s.repo.UpdateNote(r.Context(), &note); err != nil {
		respondOpError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, noteToView(note))
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.repo.DeleteNote(r.Context(), id, userID); err != nil {
		respondOpError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]bool{"deleted": true})
}
