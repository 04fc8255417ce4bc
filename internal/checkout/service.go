package checkout

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"eden/internal/apperr"
	"eden/internal/notify"
)

// Request is a checkout as posted by the storefront.
type Request struct {
	Email          string   `json:"email"`
	Lines          []Line   `json:"cart"`
	ClientTotal    *float64 `json:"total"` // pesos, optional
	IdempotencyKey string   `json:"-"`
}

// Result is a successful checkout. Delivery tells whether the receipt went out.
type Result struct {
	Quote    *Quote
	Delivery notify.Delivery
}

type Notifier interface {
	Dispatch(ctx context.Context, msg notify.Message) notify.Delivery
}

// Guard rejects a repeated submission of the same checkout.
type Guard interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type Service struct {
	calc     *Calculator
	notifier Notifier
	guard    Guard
	log      *slog.Logger
	validate *validator.Validate
}

// NewService wires a checkout service. guard may be nil.
func NewService(calc *Calculator, notifier Notifier, guard Guard, logger *slog.Logger) *Service {
	return &Service{calc: calc, notifier: notifier, guard: guard, log: logger, validate: validator.New()}
}

// Checkout reprices the cart, checks the client total and emails the receipt.
// Nothing is persisted; a failed email does not fail the checkout.
func (s *Service) Checkout(ctx context.Context, req Request) (*Result, error) {
	const op = "checkout.Checkout"
	if len(req.Lines) == 0 {
		return nil, apperr.Validation(op, "cart is empty")
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Var(req.Email, "required,email"); err != nil {
		return nil, apperr.Validation(op, "a valid email is required for the receipt")
	}

	claimed := false
	if s.guard != nil && req.IdempotencyKey != "" {
		ok, err := s.guard.Claim(ctx, req.IdempotencyKey)
		switch {
		case err != nil:
			s.log.Warn("idempotency guard unavailable", "error", err)
		case !ok:
			return nil, apperr.Conflict(op, "this checkout was already submitted")
		default:
			claimed = true
		}
	}
	release := func() {
		if !claimed {
			return
		}
		if err := s.guard.Release(context.WithoutCancel(ctx), req.IdempotencyKey); err != nil {
			s.log.Warn("idempotency key release failed", "error", err)
		}
	}

	q, err := s.calc.Quote(ctx, req.Lines)
	if err != nil {
		release()
		return nil, err
	}
	if err := q.Verify(req.ClientTotal); err != nil {
		release()
		return nil, err
	}

	msg, err := Receipt(req.Email, q)
	if err != nil {
		release()
		return nil, err
	}
	d := s.notifier.Dispatch(ctx, msg)
	s.log.Info("checkout completed", "lines", len(q.Lines), "total", q.Total.String(), "receipt", d.Status)
	return &Result{Quote: q, Delivery: d}, nil
}

// Quote prices lines without checking out; used for cart views and payments.
func (s *Service) Quote(ctx context.Context, lines []Line) (*Quote, error) {
	return s.calc.Quote(ctx, lines)
}
