package http

import (
	"net/http"
	"strconv"

	"finbook/internal/core"
	"finbook/internal/storage"
)

type transactionRequest struct {
	AccountID  *int64   `json:"accountId"`
	Type       string   `json:"type"`
	Amount     amount   `json:"amount"`
	Category   string   `json:"category"`
	Tags       []string `json:"tags"`
	OccurredOn string   `json:"occurredOn"`
	Source     string   `json:"source"`
	Note       string   `json:"note"`
}

func (req transactionRequest) toTransaction(userID int64) (core.Transaction, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	occurredOn, err := core.ParseDayKey(req.OccurredOn)
	if err != nil {
		return core.Transaction{}, core.Invalid("invalid occurredOn, want YYYY-MM-DD")
	}
	t := core.Transaction{
		UserID:     userID,
		AccountID:  req.AccountID,
		Type:       core.TransactionType(req.Type),
		Amount:     amount,
		Category:   req.Category,
		Tags:       req.Tags,
		OccurredOn: occurredOn,
		Source:     core.TransactionSource(req.Source),
		Note:       req.Note,
	}
	if t.Source == "" {
		t.Source = core.SourceManual
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func transactionFilterFromQuery(r *http.Request) storage.TransactionFilter {
	q := r.URL.Query()
	f := storage.TransactionFilter{
		Type:     core.TransactionType(q.Get("type")),
		Category: q.Get("category"),
		From:     q.Get("from"),
		To:       q.Get("to"),
	}
	if v, err := strconv.ParseInt(q.Get("accountId"), 10, 64); err == nil {
		f.AccountID = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		f.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		f.Offset = v
	}
	return f
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, userID int64) {
	transactions, err := s.repo.ListTransactions(r.Context(), userID, transactionFilterFromQuery(r))
	if err != nil {
		respondOpError(w, r, err)
		return
	}
	views := make([]transactionView, 0, len(transactions))
	for _, t := range transactions {
		views = append(views, transactionToView(t))
	}
	respondData(w, http.StatusOK, views)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, userID int64) {
	var req transactionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	t, err := req.toTransaction(userID)
	if err != nil {
		respondOpError(w, r, err)
		return
	}
	if err := s.repo.CreateTransaction(r.Context(), &t); err != nil {
		respondOpError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, transactionToView(t))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req transactionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	t, err := req.toTransaction(userID)
	if err != nil {
		respondOpError(w, r, err)
		return
	}
	t.ID = id
	if err := s.repo.UpdateTransaction(r.Context(), &t); err != nil {
		respondOpError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, transactionToView(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.repo.DeleteTransaction(r.Context(), id, userID); err != nil {
		respondOpError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]bool{"deleted": true})
}
