package services

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finbook/internal/core"
	"finbook/internal/storage"
)

type aggCall struct {
	granularity core.DurationType
	categories  []string
	periods     []string
}

type fakeAggregator struct {
	calls  []aggCall
	totals map[core.PeriodKey]int64
	err    error
}

func (f *fakeAggregator) SumExpensesByPeriod(_ context.Context, _ int64, granularity core.DurationType, categories, periods []string) (map[core.PeriodKey]int64, error) {
	sort.Strings(categories)
	sort.Strings(periods)
	f.calls = append(f.calls, aggCall{granularity: granularity, categories: categories, periods: periods})
	if f.err != nil {
		return nil, f.err
	}
	return f.totals, nil
}

type fakeBudgetStore struct {
	budgets []core.Budget
	created []core.Budget
	nextID  int64
}

func (f *fakeBudgetStore) CreateBudget(_ context.Context, b *core.Budget) error {
	f.nextID++
	b.ID = f.nextID
	f.created = append(f.created, *b)
	return nil
}

func (f *fakeBudgetStore) GetBudget(_ context.Context, id, userID int64) (core.Budget, error) {
	for _, b := range f.budgets {
		if b.ID == id && b.UserID == userID {
			return b, nil
		}
	}
	return core.Budget{}, core.ErrNotFound
}

func (f *fakeBudgetStore) ListBudgets(_ context.Context, _ int64, _ storage.BudgetFilter) ([]core.Budget, error) {
	return f.budgets, nil
}

func (f *fakeBudgetStore) UpdateBudget(_ context.Context, _ *core.Budget) error { return nil }

func (f *fakeBudgetStore) DeleteBudget(_ context.Context, _, _ int64) error { return nil }

func monthBudget(id int64, category, month string, limitCents, spentCents int64) core.Budget {
	return core.Budget{
		ID:           id,
		UserID:       1,
		Category:     category,
		DurationType: core.DurationMonth,
		Month:        month,
		Duration:     1,
		Limit:        core.Money{Cents: limitCents},
		Spent:        core.Money{Cents: spentCents},
	}
}

func TestComputeSpentUsesAggregatedTotal(t *testing.T) {
	agg := &fakeAggregator{totals: map[core.PeriodKey]int64{
		{Category: "groceries", Period: "2024-06"}: 43210,
	}}
	svc := NewBudgetService(&fakeBudgetStore{}, agg, nil)

	budgets := []core.Budget{monthBudget(1, "groceries", "2024-06", 50000, 99)}
	out, err := svc.ComputeSpent(context.Background(), budgets, 1)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(43210), out[0].Spent.Cents, "aggregated total wins over stored spent")
}

func TestComputeSpentFallsBackToStoredValue(t *testing.T) {
	agg := &fakeAggregator{totals: map[core.PeriodKey]int64{}}
	svc := NewBudgetService(&fakeBudgetStore{}, agg, nil)

	budgets := []core.Budget{monthBudget(1, "groceries", "2024-06", 50000, 1200)}
	out, err := svc.ComputeSpent(context.Background(), budgets, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), out[0].Spent.Cents, "stored spent stands when nothing matched")
}

func TestComputeSpentDefaultsToZero(t *testing.T) {
	agg := &fakeAggregator{totals: map[core.PeriodKey]int64{}}
	svc := NewBudgetService(&fakeBudgetStore{}, agg, nil)

	budgets := []core.Budget{monthBudget(1, "groceries", "2024-06", 50000, 0)}
	out, err := svc.ComputeSpent(context.Background(), budgets, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), out[0].Spent.Cents)
}

func TestComputeSpentOneQueryPerPartition(t *testing.T) {
	agg := &fakeAggregator{totals: map[core.PeriodKey]int64{}}
	svc := NewBudgetService(&fakeBudgetStore{}, agg, nil)

	dayBudget := core.Budget{
		ID: 4, UserID: 1, Category: "coffee",
		DurationType: core.DurationDay, Day: "2024-06-15",
		Duration: 1, Limit: core.Money{Cents: 500},
	}
	budgets := []core.Budget{
		monthBudget(1, "groceries", "2024-06", 50000, 0),
		monthBudget(2, "dining", "2024-06", 20000, 0),
		monthBudget(3, "groceries", "2024-07", 50000, 0),
		dayBudget,
	}

	_, err := svc.ComputeSpent(context.Background(), budgets, 1)
	require.NoError(t, err)

	// Three monthly budgets and one daily budget cost exactly two grouped
	// queries, with deduplicated category and period sets.
	require.Len(t, agg.calls, 2)
	assert.Equal(t, core.DurationMonth, agg.calls[0].granularity)
	assert.Equal(t, []string{"dining", "groceries"}, agg.calls[0].categories)
	assert.Equal(t, []string{"2024-06", "2024-07"}, agg.calls[0].periods)
	assert.Equal(t, core.DurationDay, agg.calls[1].granularity)
	assert.Equal(t, []string{"coffee"}, agg.calls[1].categories)
	assert.Equal(t, []string{"2024-06-15"}, agg.calls[1].periods)
}

func TestComputeSpentSkipsEmptyPartitions(t *testing.T) {
	agg := &fakeAggregator{totals: map[core.PeriodKey]int64{}}
	svc := NewBudgetService(&fakeBudgetStore{}, agg, nil)

	budgets := []core.Budget{monthBudget(1, "groceries", "2024-06", 50000, 0)}
	_, err := svc.ComputeSpent(context.Background(), budgets, 1)
	require.NoError(t, err)
	require.Len(t, agg.calls, 1, "no query for the empty daily partition")
}

func TestComputeSpentEmptyInput(t *testing.T) {
	agg := &fakeAggregator{}
	svc := NewBudgetService(&fakeBudgetStore{}, agg, nil)

	out, err := svc.ComputeSpent(context.Background(), nil, 1)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, agg.calls)
}

func TestComputeSpentPropagatesAggregatorError(t *testing.T) {
	agg := &fakeAggregator{err: errors.New("db gone")}
	svc := NewBudgetService(&fakeBudgetStore{}, agg, nil)

	_, err := svc.ComputeSpent(context.Background(), []core.Budget{monthBudget(1, "a", "2024-06", 100, 0)}, 1)
	require.Error(t, err)
}

func TestBudgetCreateDefaults(t *testing.T) {
	store := &fakeBudgetStore{}
	svc := NewBudgetService(store, &fakeAggregator{}, nil)

	created, err := svc.Create(context.Background(), core.Budget{
		UserID:   1,
		Category: "groceries",
		Month:    "2024-06",
		Limit:    core.Money{Cents: 50000},
	})
	require.NoError(t, err)
	assert.Equal(t, core.DurationMonth, created.DurationType)
	assert.Equal(t, 1, created.Duration)
	require.Len(t, store.created, 1)
}

func TestBudgetCreateRejectsInvalid(t *testing.T) {
	store := &fakeBudgetStore{}
	svc := NewBudgetService(store, &fakeAggregator{}, nil)

	_, err := svc.Create(context.Background(), core.Budget{UserID: 1, Month: "2024-06", Limit: core.Money{Cents: 100}})
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
	assert.Empty(t, store.created, "nothing persisted on validation failure")
}

func TestBudgetSummary(t *testing.T) {
	store := &fakeBudgetStore{budgets: []core.Budget{
		monthBudget(1, "groceries", "2024-06", 50000, 0),
		monthBudget(2, "dining", "2024-06", 10000, 0),
	}}
	agg := &fakeAggregator{totals: map[core.PeriodKey]int64{
		{Category: "groceries", Period: "2024-06"}: 20000,
		{Category: "dining", Period: "2024-06"}:    15000,
	}}
	svc := NewBudgetService(store, agg, nil)

	summary, err := svc.Summary(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Count)
	assert.Equal(t, int64(60000), summary.TotalLimit.Cents)
	assert.Equal(t, int64(35000), summary.TotalSpent.Cents)
	assert.Equal(t, 1, summary.OverBudget)
}
