// Package checkout reprices a cart against stored prices and turns it into an emailed receipt.
package checkout

import (
	"context"
	"math"
	"sort"

	"eden/internal/apperr"
	"eden/internal/models"
	"eden/internal/money"
)

// TaxPercent is the fixed sales tax applied to every order.
const TaxPercent = 12

// MaxQuantity caps a single cart line.
const MaxQuantity = 10000

// Tolerance is how far a client-computed total may drift from ours.
const Tolerance money.Centavos = 1

// Line is one client-supplied cart entry. Prices are never taken from the client.
type Line struct {
	ProductID uint `json:"product_id" form:"product_id"`
	Quantity  int  `json:"quantity" form:"quantity"`
}

// PricedLine is a cart line repriced from the store.
type PricedLine struct {
	ProductID uint           `json:"product_id"`
	Title     string         `json:"title"`
	Quantity  int            `json:"quantity"`
	UnitPrice money.Centavos `json:"unit_price"`
	LineTotal money.Centavos `json:"line_total"`
}

// Quote is the server-side price of a cart.
type Quote struct {
	Lines    []PricedLine   `json:"lines"`
	Subtotal money.Centavos `json:"subtotal"`
	Tax      money.Centavos `json:"tax"`
	Total    money.Centavos `json:"total"`
}

// PriceSource looks up postings by id. It must read the store directly, with no cache
// between it and the database.
type PriceSource interface {
	FindByIDs(ctx context.Context, ids []uint) ([]models.Posting, error)
}

type Calculator struct {
	prices PriceSource
}

func NewCalculator(prices PriceSource) *Calculator {
	return &Calculator{prices: prices}
}

// Quote prices lines. Every product must be an approved store posting that is not deleted.
func (c *Calculator) Quote(ctx context.Context, lines []Line) (*Quote, error) {
	const op = "checkout.Quote"
	if len(lines) == 0 {
		return nil, apperr.Validation(op, "cart is empty")
	}
	ids := make([]uint, 0, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, apperr.Validation(op, "quantity of product %d must be positive", l.ProductID)
		}
		if l.Quantity > MaxQuantity {
			return nil, apperr.Validation(op, "quantity of product %d must be at most %d", l.ProductID, MaxQuantity)
		}
		ids = append(ids, l.ProductID)
	}

	found, err := c.prices.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Posting, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	q := &Quote{Lines: make([]PricedLine, 0, len(lines))}
	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok || !sellable(&p) {
			return nil, apperr.NotFound(op, "product %d is not available", l.ProductID)
		}
		unit := money.Centavos(*p.PriceCentavos)
		total, ok := unit.Times(l.Quantity)
		if ok {
			q.Subtotal, ok = q.Subtotal.Plus(total)
		}
		if !ok {
			return nil, apperr.Validation(op, "cart total is too large")
		}
		q.Lines = append(q.Lines, PricedLine{
			ProductID: p.ID,
			Title:     p.Title,
			Quantity:  l.Quantity,
			UnitPrice: unit,
			LineTotal: total,
		})
	}
	var ok bool
	if q.Tax, ok = q.Subtotal.Percent(TaxPercent); ok {
		q.Total, ok = q.Subtotal.Plus(q.Tax)
	}
	if !ok {
		return nil, apperr.Validation(op, "cart total is too large")
	}
	return q, nil
}

// Verify compares a client total (in pesos) with the quote.
func (q *Quote) Verify(clientTotal *float64) error {
	if clientTotal == nil {
		return nil
	}
	if math.IsNaN(*clientTotal) || math.Abs(*clientTotal) > maxClientPesos {
		return apperr.Conflict("checkout.Verify", "cart total changed: expected %s, got %v", q.Total, *clientTotal)
	}
	diff := money.FromPesos(*clientTotal) - q.Total
	if diff < 0 {
		diff = -diff
	}
	if diff > Tolerance {
		return apperr.Conflict("checkout.Verify", "cart total changed: expected %s, got %.2f", q.Total, *clientTotal)
	}
	return nil
}

// maxClientPesos keeps FromPesos inside int64.
const maxClientPesos = 1e15

func sellable(p *models.Posting) bool {
	return p.Kind == models.KindStore &&
		p.Status == models.StatusApproved &&
		!p.Deleted() &&
		p.PriceCentavos != nil
}

// SortLines orders lines by product id; session carts have no natural order.
func SortLines(lines []Line) {
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
}
