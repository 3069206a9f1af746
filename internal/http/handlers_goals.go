package http

import (
	"net/http"

	"finbook/internal/core"
)

type goalRequest struct {
	Title     string `json:"title"`
	Target    amount `json:"target"`
	Current   amount `json:"current"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Priority  string `json:"priority"`
}

func (req goalRequest) toGoal(userID int64) (core.Goal, error) {
	target, err := parseAmount(req.Target)
	if err != nil {
		return core.Goal{}, core.Invalid("invalid target amount")
	}
	var current core.Money
	if req.Current != "" && req.Current != "0" {
		current, err = parseAmount(req.Current)
		if err != nil {
			return core.Goal{}, core.Invalid("invalid current amount")
		}
	}
	startDate, err := core.ParseDayKey(req.StartDate)
	if err != nil {
		return core.Goal{}, core.Invalid("invalid startDate, want YYYY-MM-DD")
	}
	endDate, err := core.ParseDayKey(req.EndDate)
	if err != nil {
		return core.Goal{}, core.Invalid("invalid endDate, want YYYY-MM-DD")
	}
	g := core.Goal{
		UserID:    userID,
		Title:     req.Title,
		Target:    target,
		Current:   current,
		StartDate: startDate,
		EndDate:   endDate,
		Priority:  core.Priority(req.Priority),
	}
	if g.Priority == "" {
		g.Priority = core.PriorityMedium
	}
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	return g, nil
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request, userID int64) {
	goals, err := s.repo.ListGoals(r.Context(), userID)
	if err != nil {
		respondOpError(w, r, err)
		return
	}
	views := make([]goalView, 0, len(goals))
	for _, g := range goals {
		views = append(views, goalToView(g))
	}
	respondData(w, http.StatusOK, views)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request, userID int64) {
	var req goalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	goal, err := req.toGoal(userID)
	if err != nil {
		respondOpError(w, r, err)
		return
	}
	if err := s.repo.CreateGoal(r.Context(), &goal); err != nil {
		respondOpError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, goalToView(goal))
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req goalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	goal, err := req.toGoal(userID)
	if err != nil {
		respondOpError(w, r, err)
		return
	}
	goal.ID = id
	if err := s.repo.UpdateGoal(r.Context(), &goal); err != nil {
		respondOpError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, goalToView(goal))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.repo.DeleteGoal(r.Context(), id, userID); err != nil {
		respondOpError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]bool{"deleted": true})
}
