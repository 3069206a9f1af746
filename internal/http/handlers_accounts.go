package http

import (
	"net/http"

	"finbook/internal/core"
)

type accountRequest struct {
	Type     string `json:"type"`
	Number   string `json:"number"`
	BankName string `json:"bankName"`
	Balance  amount `json:"balance"`
}

func (req accountRequest) toAccount(userID int64) (core.Account, error) {
	a := core.Account{
		UserID:   userID,
		Type:     req.Type,
		Number:   req.Number,
		BankName: req.BankName,
	}
	// A zero opening balance is valid, unlike transaction amounts.
	if req.Balance != "" && req.Balance != "0" {
		balance, err := parseAmount(req.Balance)
		if err != nil {
			return core.Account{}, err
		}
		a.Balance = balance
	}
	if a.Type == "" {
		return core.Account{}, core.Invalid("account type is required")
	}
	if a.Number == "" {
		return core.Account{}, core.Invalid("account number is required")
	}
	return a, nil
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request, userID int64) {
	accounts, err := s.repo.ListAccounts(r.Context(), userID)
	if err != nil {
		respondOpError(w, r, err)
		return
	}
	views := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, accountToView(a))
	}
	respondData(w, http.StatusOK, views)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request, userID int64) {
	var req accountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	account, err := req.toAccount(userID)
	if err != nil {
		respondOpError(w, r, err)
		return
	}
	if err := s.repo.CreateAccount(r.Context(), &account); err != nil {
		respondOpError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, accountToView(account))
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req accountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	account, err := req.toAccount(userID)
	if err != nil {
		respondOpError(w, r, err)
		return
	}
	account.ID = id
	if err := s.repo.UpdateAccount(r.Context(), &account); err != nil {
		respondOpError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, accountToView(account))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.repo.DeleteAccount(r.Context(), id, userID); err != nil {
		respondOpError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]bool{"deleted": true})
}
