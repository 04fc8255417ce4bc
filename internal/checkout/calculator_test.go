package checkout

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eden/internal/apperr"
	"eden/internal/models"
	"eden/internal/money"
)

type fakePrices struct {
	rows  []models.Posting
	calls int
}

func (f *fakePrices) FindByIDs(_ context.Context, ids []uint) ([]models.Posting, error) {
	f.calls++
	var out []models.Posting
	for _, p := range f.rows {
		for _, id := range ids {
			if p.ID == id {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func ptr[T any](v T) *T { return &v }

func approvedItem(id uint, title string, legacyPrice float64) models.Posting {
	c := int64(money.FromLegacyPrice(legacyPrice))
	return models.Posting{
		Base:          models.Base{ID: id},
		Kind:          models.KindStore,
		Status:        models.StatusApproved,
		Title:         title,
		PriceCentavos: &c,
		Subcategory:   ptr("tools"),
	}
}

func catalog() *fakePrices {
	removed := time.Now()
	deleted := approvedItem(4, "Gone", 10)
	deleted.Status = models.StatusDeleted
	deleted.RemovedAt = &removed
	pending := approvedItem(5, "Not yet", 10)
	pending.Status = models.StatusPending
	job := approvedItem(6, "Gardener", 10)
	job.Kind = models.KindJobListing
	job.PriceCentavos = nil

	return &fakePrices{rows: []models.Posting{
		approvedItem(1, "Shovel", 150),
		approvedItem(2, "Rose bush", 90),
		approvedItem(3, "Seeds", 12.5),
		deleted, pending, job,
	}}
}

func TestQuoteScenario(t *testing.T) {
	calc := NewCalculator(catalog())

	q, err := calc.Quote(context.Background(), []Line{{ProductID: 1, Quantity: 2}})
	require.NoError(t, err)

	assert.Equal(t, "30.00", q.Subtotal.String())
	assert.Equal(t, "3.60", q.Tax.String())
	assert.Equal(t, "33.60", q.Total.String())
	require.Len(t, q.Lines, 1)
	assert.Equal(t, "15.00", q.Lines[0].UnitPrice.String())
}

func TestQuoteTotalsInvariant(t *testing.T) {
	calc := NewCalculator(catalog())
	carts := [][]Line{
		{{1, 1}},
		{{3, 1}},
		{{3, 7}, {2, 3}},
		{{1, 13}, {2, 1}, {3, 99}},
		{{2, 1}, {2, 4}},
	}
	for _, cart := range carts {
		q, err := calc.Quote(context.Background(), cart)
		require.NoError(t, err)

		var sum money.Centavos
		for _, l := range q.Lines {
			sum += l.LineTotal
		}
		assert.Equal(t, sum, q.Subtotal)
		assert.Equal(t, q.Subtotal+q.Tax, q.Total)
		want := math.Round(q.Subtotal.Pesos()*0.12*100) / 100
		assert.InDelta(t, want, q.Tax.Pesos(), 1e-9, "tax of %s", q.Subtotal)
	}
}

func TestQuoteEmptyCartNeverPrices(t *testing.T) {
	prices := catalog()
	calc := NewCalculator(prices)

	_, err := calc.Quote(context.Background(), nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Zero(t, prices.calls)
}

func TestQuoteRejects(t *testing.T) {
	tests := []struct {
		name string
		line Line
		want error
	}{
		{"zero quantity", Line{1, 0}, apperr.ErrValidation},
		{"negative quantity", Line{1, -2}, apperr.ErrValidation},
		{"missing", Line{99, 1}, apperr.ErrNotFound},
		{"deleted", Line{4, 1}, apperr.ErrNotFound},
		{"pending", Line{5, 1}, apperr.ErrNotFound},
		{"job listing", Line{6, 1}, apperr.ErrNotFound},
		{"over max quantity", Line{1, MaxQuantity + 1}, apperr.ErrValidation},
		{"quantity that would overflow", Line{1, math.MaxInt64 / 1000}, apperr.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := NewCalculator(catalog())
			_, err := calc.Quote(context.Background(), []Line{{2, 1}, tt.line})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestQuoteQuantityLimit(t *testing.T) {
	calc := NewCalculator(catalog())

	q, err := calc.Quote(context.Background(), []Line{{1, MaxQuantity}})
	require.NoError(t, err)
	assert.Equal(t, "150000.00", q.Subtotal.String())
	assert.Positive(t, int64(q.Total))
}

func TestQuoteOverflowingPrices(t *testing.T) {
	huge := approvedItem(1, "Gold shovel", 0)
	*huge.PriceCentavos = math.MaxInt64 / 4
	calc := NewCalculator(&fakePrices{rows: []models.Posting{huge}})

	// the line fits, the tax on it does not
	_, err := calc.Quote(context.Background(), []Line{{1, 1}})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = calc.Quote(context.Background(), []Line{{1, 8}})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestVerify(t *testing.T) {
	q := &Quote{Total: 3360}

	assert.NoError(t, q.Verify(nil))
	assert.NoError(t, q.Verify(ptr(33.60)))
	assert.NoError(t, q.Verify(ptr(33.61)))
	assert.NoError(t, q.Verify(ptr(33.59)))
	assert.ErrorIs(t, q.Verify(ptr(33.62)), apperr.ErrConflict)
	assert.ErrorIs(t, q.Verify(ptr(30.00)), apperr.ErrConflict)
	assert.ErrorIs(t, q.Verify(ptr(math.Inf(1))), apperr.ErrConflict)
	assert.ErrorIs(t, q.Verify(ptr(math.NaN())), apperr.ErrConflict)
	assert.ErrorIs(t, q.Verify(ptr(1e30)), apperr.ErrConflict)
}

func TestSortLines(t *testing.T) {
	lines := []Line{{3, 1}, {1, 2}, {2, 5}}
	SortLines(lines)
	assert.Equal(t, []Line{{1, 2}, {2, 5}, {3, 1}}, lines)
}
