// Package services holds the business logic the HTTP layer and workers drive:
// budget spend aggregation, the bill lifecycle engine, and the bill sweeper.
package services

import (
	"context"
	"fmt"

	"finbook/internal/core"
	applog "finbook/internal/log"
	"finbook/internal/storage"
)

// SpendAggregator is the grouped-aggregation primitive of the document store.
type SpendAggregator interface {
	SumExpensesByPeriod(ctx context.Context, userID int64, granularity core.DurationType, categories, periods []string) (map[core.PeriodKey]int64, error)
}

// BudgetStore is the slice of persistence the budget service needs.
type BudgetStore interface {
	CreateBudget(ctx context.Context, b *core.Budget) error
	GetBudget(ctx context.Context, id, userID int64) (core.Budget, error)
	ListBudgets(ctx context.Context, userID int64, f storage.BudgetFilter) ([]core.Budget, error)
	UpdateBudget(ctx context.Context, b *core.Budget) error
	DeleteBudget(ctx context.Context, id, userID int64) error
}

type BudgetService struct {
	store    BudgetStore
	agg      SpendAggregator
	notifier Notifier
	log      *applog.Logger
}

func NewBudgetService(store BudgetStore, agg SpendAggregator, notifier Notifier) *BudgetService {
	return &BudgetService{
		store:    store,
		agg:      agg,
		notifier: notifier,
		log:      applog.Default(applog.ComponentBudget),
	}
}

// BudgetSummary totals a budget list.
type BudgetSummary struct {
	Count      int        `json:"count"`
	TotalLimit core.Money `json:"totalLimit"`
	TotalSpent core.Money `json:"totalSpent"`
	OverBudget int        `json:"overBudget"`
}

// Create validates and persists a budget, then emits a creation notification.
func (s *BudgetService) Create(ctx context.Context, b core.Budget) (core.Budget, error) {
	if b.DurationType == "" {
		b.DurationType = core.DurationMonth
	}
	if b.Duration == 0 {
		b.Duration = 1
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.store.CreateBudget(ctx, &b); err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}

	s.notifyBestEffort(ctx, core.NotificationInput{
		UserID: b.UserID,
		Type:   "budget_created",
		Title:  "Budget created",
		Body:   fmt.Sprintf("Budget for %s (%s)", b.Category, b.PeriodValue()),
		Data:   map[string]any{"budget_id": b.ID, "category": b.Category},
	})
	return b, nil
}

func (s *BudgetService) Update(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.store.UpdateBudget(ctx, &b); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (s *BudgetService) Delete(ctx context.Context, id, userID int64) error {
	return s.store.DeleteBudget(ctx, id, userID)
}

// List loads the user's budgets, applying filters before aggregation, and
// returns them with freshly computed spent values.
func (s *BudgetService) List(ctx context.Context, userID int64, f storage.BudgetFilter) ([]core.Budget, error) {
	budgets, err := s.store.ListBudgets(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return s.ComputeSpent(ctx, budgets, userID)
}

// Summary aggregates a user's budgets after recomputing spent.
func (s *BudgetService) Summary(ctx context.Context, userID int64) (BudgetSummary, error) {
	budgets, err := s.List(ctx, userID, storage.BudgetFilter{})
	if err != nil {
		return BudgetSummary{}, err
	}
	summary := BudgetSummary{Count: len(budgets)}
	for _, b := range budgets {
		summary.TotalLimit.Cents += b.Limit.Cents
		summary.TotalSpent.Cents += b.Spent.Cents
		if b.Spent.Cents > b.Limit.Cents {
			summary.OverBudget++
		}
	}
	return summary, nil
}

// ComputeSpent annotates each budget with a fresh spent value. Budgets are
// partitioned by granularity (calendar month vs exact day) and each non-empty
// partition costs exactly one grouped query, however many budgets share
// categories or periods. Per budget, the resolution is a three-branch
// decision: freshly aggregated total, else the stored spent value, else zero.
func (s *BudgetService) ComputeSpent(ctx context.Context, budgets []core.Budget, userID int64) ([]core.Budget, error) {
	if len(budgets) == 0 {
		return budgets, nil
	}

	var monthly, daily []core.Budget
	for _, b := range budgets {
		if b.DurationType == core.DurationDay {
			daily = append(daily, b)
		} else {
			monthly = append(monthly, b)
		}
	}

	monthTotals, err := s.aggregate(ctx, userID, core.DurationMonth, monthly)
	if err != nil {
		return nil, err
	}
	dayTotals, err := s.aggregate(ctx, userID, core.DurationDay, daily)
	if err != nil {
		return nil, err
	}

	out := make([]core.Budget, len(budgets))
	for i, b := range budgets {
		totals := monthTotals
		if b.DurationType == core.DurationDay {
			totals = dayTotals
		}
		key := core.PeriodKey{Category: b.Category, Period: b.PeriodValue()}
		total, matched := totals[key]
		switch {
		case matched:
			b.Spent = core.Money{Cents: total}
		case b.Spent.Cents != 0:
			// no matching transactions; the stored value stands
		default:
			b.Spent = core.Money{}
		}
		out[i] = b
	}
	return out, nil
}

// aggregate issues the single grouped query for one partition, scoped to the
// distinct categories and period keys the partition actually needs.
func (s *BudgetService) aggregate(ctx context.Context, userID int64, granularity core.DurationType, budgets []core.Budget) (map[core.PeriodKey]int64, error) {
	if len(budgets) == 0 {
		return map[core.PeriodKey]int64{}, nil
	}

	catSet := make(map[string]struct{})
	periodSet := make(map[string]struct{})
	for _, b := range budgets {
		catSet[b.Category] = struct{}{}
		periodSet[b.PeriodValue()] = struct{}{}
	}

	categories := make([]string, 0, len(catSet))
	for c := range catSet {
		categories = append(categories, c)
	}
	periods := make([]string, 0, len(periodSet))
	for p := range periodSet {
		periods = append(periods, p)
	}

	totals, err := s.agg.SumExpensesByPeriod(ctx, userID, granularity, categories, periods)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s budgets: %w", granularity, err)
	}
	return totals, nil
}

func (s *BudgetService) notifyBestEffort(ctx context.Context, in core.NotificationInput) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Notify(ctx, in); err != nil {
		s.log.WarnContext(ctx, "Budget notification failed",
			applog.FieldUserID, in.UserID,
			"type", in.Type,
			applog.FieldError, err)
	}
}
