package http

import (
	"net/http"

	"finbook/internal/core"
	"finbook/internal/services"
)

type billRequest struct {
	Title        string `json:"title"`
	Amount       amount `json:"amount"`
	Category     string `json:"category"`
	DueDate      string `json:"dueDate"`
	Frequency    string `json:"frequency"`
	Recurring    *bool  `json:"recurring"`
	ReminderDays *int   `json:"reminderDays"`
}

type billStatusRequest struct {
	Status string `json:"status"`
}

type billSummaryView struct {
	Pending  int64      `json:"pending"`
	Paid     int64      `json:"paid"`
	Overdue  int64      `json:"overdue"`
	Upcoming []billView `json:"upcoming"`
}

func (req billRequest) toInput() (services.CreateBillInput, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return services.CreateBillInput{}, err
	}
	dueDate, err := core.ParseDayKey(req.DueDate)
	if err != nil {
		return services.CreateBillInput{}, core.Invalid("invalid dueDate, want YYYY-MM-DD")
	}
	return services.CreateBillInput{
		Title:        req.Title,
		Amount:       amount,
		Category:     req.Category,
		DueDate:      dueDate,
		Frequency:    core.Frequency(req.Frequency),
		Recurring:    req.Recurring,
		ReminderDays: req.ReminderDays,
	}, nil
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request, userID int64) {
	status := core.BillStatus(r.URL.Query().Get("status"))
	bills, err := s.bills.List(r.Context(), userID, status)
	if err != nil {
		respondOpError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, billsToViews(bills))
}

func (s *Server) handleBillSummary(w http.ResponseWriter, r *http.Request, userID int64) {
	summary, err := s.bills.Summary(r.Context(), userID)
	if err != nil {
		respondOpError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, billSummaryView{
		Pending:  summary.Pending,
		Paid:     summary.Paid,
		Overdue:  summary.Overdue,
		Upcoming: billsToViews(summary.Upcoming),
	})
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request, userID int64) {
	var req billRequest
	if !decodeBody(w, r, &req) {
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondOpError(w, r, err)
		return
	}
	bill, err := s.bills.Create(r.Context(), userID, input)
	if err != nil {
		respondOpError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, billToView(bill))
}

func (s *Server) handleUpdateBill(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req billRequest
	if !decodeBody(w, r, &req) {
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondOpError(w, r, err)
		return
	}
	updated, err := s.bills.Update(r.Context(), id, userID, input)
	if err != nil {
		respondOpError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, billToView(updated))
}

// handleBillStatus applies a status transition; marking paid runs the full
// lifecycle step (cursor advance, payment record, notification).
func (s *Server) handleBillStatus(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req billStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	status := core.BillStatus(req.Status)
	switch status {
	case core.BillPending, core.BillPaid, core.BillOverdue:
	default:
		respondError(w, http.StatusUnprocessableEntity, "invalid status")
		return
	}
	bill, err := s.bills.SetStatus(r.Context(), id, userID, status)
	if err != nil {
		respondOpError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, billToView(bill))
}

func (s *Server) handleBillPayments(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	payments, err := s.repo.ListBillPayments(r.Context(), id, userID)
	if err != nil {
		respondOpError(w, r, err)
		return
	}
	views := make([]billPaymentView, 0, len(payments))
	for _, p := range payments {
		views = append(views, billPaymentToView(p))
	}
	respondData(w, http.StatusOK, views)
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.bills.Delete(r.Context(), id, userID); err != nil {
		respondOpError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]bool{"deleted": true})
}
