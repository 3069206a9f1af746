package http

import (
	"net/http"
	"strconv"
	"time"

	"finbook/internal/core"
	"finbook/internal/storage"
)

type budgetRequest struct {
	Category     string `json:"category"`
	DurationType string `json:"durationType"`
	Month        string `json:"month"`
	Day          string `json:"day"`
	Duration     int    `json:"duration"`
	Limit        amount `json:"limit"`
}

func (req budgetRequest) toBudget(userID int64) (core.Budget, error) {
	limit, err := parseAmount(req.Limit)
	if err != nil {
		return core.Budget{}, err
	}
	return core.Budget{
		UserID:       userID,
		Category:     req.Category,
		DurationType: core.DurationType(req.DurationType),
		Month:        req.Month,
		Day:          req.Day,
		Duration:     req.Duration,
		Limit:        limit,
	}, nil
}

func budgetFilterFromQuery(r *http.Request) storage.BudgetFilter {
	q := r.URL.Query()
	f := storage.BudgetFilter{
		Category:       q.Get("category"),
		CategorySearch: q.Get("search"),
		Month:          q.Get("month"),
	}
	if v, err := strconv.ParseInt(q.Get("minLimitCents"), 10, 64); err == nil {
		f.MinLimitCents = v
	}
	if v, err := strconv.ParseInt(q.Get("maxLimitCents"), 10, 64); err == nil {
		f.MaxLimitCents = v
	}
	if v, err := strconv.Atoi(q.Get("recentDays")); err == nil && v > 0 {
		f.CreatedAfter = time.Now().AddDate(0, 0, -v)
	}
	return f
}

// handleListBudgets returns budgets with Spent recomputed from transactions.
func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request, userID int64) {
	budgets, err := s.budgets.List(r.Context(), userID, budgetFilterFromQuery(r))
	if err != nil {
		respondOpError(w, r, err)
		return
	}
	views := make([]budgetView, 0, len(budgets))
	for _, b := range budgets {
		views = append(views, budgetToView(b))
	}
	respondData(w, http.StatusOK, views)
}

func (s *Server) handleBudgetSummary(w http.ResponseWriter, r *http.Request, userID int64) {
	summary, err := s.budgets.Summary(r.Context(), userID)
	if err != nil {
		respondOpError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, summary)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request, userID int64) {
	var req budgetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	budget, err := req.toBudget(userID)
	if err != nil {
		respondOpError(w, r, err)
		return
	}
	created, err := s.budgets.Create(r.Context(), budget)
	if err != nil {
		respondOpError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, budgetToView(created))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req budgetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	budget, err := req.toBudget(userID)
	if err != nil {
		respondOpError(w, r, err)
		return
	}
	budget.ID = id
	updated, err := s.budgets.Update(r.Context(), budget)
	if err != nil {
		respondOpError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, budgetToView(updated))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.budgets.Delete(r.Context(), id, userID); err != nil {
		respondOpError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]bool{"deleted": true})
}
