package http

import (
	"encoding/json"
	"net/http"

	"finbook/internal/core"
)

// View types decouple the wire shape from the domain structs. Amounts are
// rendered twice: in major units for display and in cents for arithmetic.

type userView struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

type accountView struct {
	ID       int64   `json:"id"`
	Type     string  `json:"type"`
	Number   string  `json:"number"`
	BankName string  `json:"bankName"`
	Balance  float64 `json:"balance"`
	Cents    int64   `json:"balanceCents"`
}

type transactionView struct {
	ID         int64    `json:"id"`
	AccountID  *int64   `json:"accountId,omitempty"`
	Type       string   `json:"type"`
	Amount     float64  `json:"amount"`
	Cents      int64    `json:"amountCents"`
	Category   string   `json:"category"`
	Tags       []string `json:"tags"`
	OccurredOn string   `json:"occurredOn"`
	Source     string   `json:"source"`
	Note       string   `json:"note,omitempty"`
}

type budgetView struct {
	ID           int64   `json:"id"`
	Category     string  `json:"category"`
	DurationType string  `json:"durationType"`
	Period       string  `json:"period"`
	Duration     int     `json:"duration"`
	Limit        float64 `json:"limit"`
	LimitCents   int64   `json:"limitCents"`
	Spent        float64 `json:"spent"`
	SpentCents   int64   `json:"spentCents"`
}

type goalView struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Target       float64 `json:"target"`
	TargetCents  int64   `json:"targetCents"`
	Current      float64 `json:"current"`
	CurrentCents int64   `json:"currentCents"`
	StartDate    string  `json:"startDate"`
	EndDate      string  `json:"endDate"`
	Priority     string  `json:"priority"`
}

type billView struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Amount       float64 `json:"amount"`
	AmountCents  int64   `json:"amountCents"`
	Category     string  `json:"category"`
	DueDate      string  `json:"dueDate"`
	Frequency    string  `json:"frequency"`
	Recurring    bool    `json:"recurring"`
	ReminderDays int     `json:"reminderDays"`
	Status       string  `json:"status"`
	NextDueDate  string  `json:"nextDueDate"`
}

type billPaymentView struct {
	ID     int64   `json:"id"`
	PaidAt string  `json:"paidAt"`
	Amount float64 `json:"amount"`
	Cents  int64   `json:"amountCents"`
}

type noteView struct {
	ID      int64    `json:"id"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	Pinned  bool     `json:"pinned"`
}

type notificationView struct {
	ID        int64          `json:"id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Body      string         `json:"body,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Priority  string         `json:"priority"`
	Read      bool           `json:"read"`
	ReadAt    *string        `json:"readAt,omitempty"`
	Delivered []string       `json:"delivered"`
	CreatedAt string         `json:"createdAt"`
}

const timestampLayout = "2006-01-02T15:04:05Z07:00"

func userToView(u core.User) userView {
	return userView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.Format(timestampLayout),
	}
}

func accountToView(a core.Account) accountView {
	return accountView{
		ID:       a.ID,
		Type:     a.Type,
		Number:   a.Number,
		BankName: a.BankName,
		Balance:  a.Balance.Amount(),
		Cents:    a.Balance.Cents,
	}
}

func transactionToView(t core.Transaction) transactionView {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return transactionView{
		ID:         t.ID,
		AccountID:  t.AccountID,
		Type:       string(t.Type),
		Amount:     t.Amount.Amount(),
		Cents:      t.Amount.Cents,
		Category:   t.Category,
		Tags:       tags,
		OccurredOn: core.DayKey(t.OccurredOn),
		Source:     string(t.Source),
		Note:       t.Note,
	}
}

func budgetToView(b core.Budget) budgetView {
	return budgetView{
		ID:           b.ID,
		Category:     b.Category,
		DurationType: string(b.DurationType),
		Period:       b.PeriodValue(),
		Duration:     b.Duration,
		Limit:        b.Limit.Amount(),
		LimitCents:   b.Limit.Cents,
		Spent:        b.Spent.Amount(),
		SpentCents:   b.Spent.Cents,
	}
}

func goalToView(g core.Goal) goalView {
	return goalView{
		ID:           g.ID,
		Title:        g.Title,
		Target:       g.Target.Amount(),
		TargetCents:  g.Target.Cents,
		Current:      g.Current.Amount(),
		CurrentCents: g.Current.Cents,
		StartDate:    core.DayKey(g.StartDate),
		EndDate:      core.DayKey(g.EndDate),
		Priority:     string(g.Priority),
	}
}

func billToView(b core.Bill) billView {
	return billView{
		ID:           b.ID,
		Title:        b.Title,
		Amount:       b.Amount.Amount(),
		AmountCents:  b.Amount.Cents,
		Category:     b.Category,
		DueDate:      core.DayKey(b.DueDate),
		Frequency:    string(b.Frequency),
		Recurring:    b.Recurring,
		ReminderDays: b.ReminderDays,
		Status:       string(b.Status),
		NextDueDate:  core.DayKey(b.NextDueDate),
	}
}

func billPaymentToView(p core.BillPayment) billPaymentView {
	return billPaymentView{
		ID:     p.ID,
		PaidAt: p.PaidAt.Format(timestampLayout),
		Amount: p.Amount.Amount(),
		Cents:  p.Amount.Cents,
	}
}

func noteToView(n core.Note) noteView {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	return noteView{
		ID:      n.ID,
		Title:   n.Title,
		Content: n.Content,
		Tags:    tags,
		Pinned:  n.Pinned,
	}
}

func notificationToView(n core.Notification) notificationView {
	delivered := n.Delivered
	if delivered == nil {
		delivered = []string{}
	}
	v := notificationView{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Body:      n.Body,
		Data:      n.Data,
		Priority:  string(n.Priority),
		Read:      n.Read,
		Delivered: delivered,
		CreatedAt: n.CreatedAt.Format(timestampLayout),
	}
	if n.ReadAt != nil {
		readAt := n.ReadAt.Format(timestampLayout)
		v.ReadAt = &readAt
	}
	return v
}

func billsToViews(bills []core.Bill) []billView {
	views := make([]billView, 0, len(bills))
	for _, b := range bills {
		views = append(views, billToView(b))
	}
	return views
}

const maxBodyBytes = 1 << 20

// decodeBody parses the request body into v; on failure it writes the error
// response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// amount accepts either a JSON number or a quoted decimal string, so clients
// may send 45.5, "45.50" or "45,50".
type amount string

func (a *amount) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*a = amount(n)
	return nil
}

// parseAmount converts a decimal amount to cents.
func parseAmount(raw amount) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(string(raw))
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}
