package checkout

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"pizza-storefront/internal/cart"
	"pizza-storefront/internal/domain"
	"pizza-storefront/internal/logs"
	"pizza-storefront/internal/money"
	"pizza-storefront/internal/order"
	"pizza-storefront/internal/storage"
)

// Gateway is the part of the catalog gateway checkout depends on.
type Gateway interface {
	ShippingMethodsOrDefault(ctx context.Context, fee money.Amount) []domain.ShippingZone
	PaymentMethodsOrDefault(ctx context.Context) []domain.PaymentMethod
	StoreInfoOrDefault(ctx context.Context) domain.StoreInfo
	SubmitOrder(ctx context.Context, o domain.Order) (domain.OrderResult, error)
}

// Carts runs work against a session's cart under that session's lock.
type Carts interface {
	With(ctx context.Context, session string, fn func(*cart.Store) error) error
}

type Service struct {
	storage    storage.Store
	carts      Carts
	gateway    Gateway
	validator  *Validator
	defaultFee money.Amount
	logger     *slog.Logger
}

func New(st storage.Store, carts Carts, gw Gateway, defaultFee money.Amount, logger *slog.Logger) *Service {
	return &Service{
		storage:    st,
		carts:      carts,
		gateway:    gw,
		validator:  NewValidator(),
		defaultFee: defaultFee,
		logger:     logs.OrDiscard(logger),
	}
}

// Request is a checkout submission.
type Request struct {
	Fulfillment string `json:"orderType"`
	Form        Form   `json:"form"`
}

// Summary is the priced state of a checkout before submission.
type Summary struct {
	Subtotal money.Amount         `json:"subtotal"`
	Shipping domain.ShippingQuote `json:"shipping"`
	Total    money.Amount         `json:"total"`
}

type Result struct {
	Order   domain.OrderResult `json:"order"`
	Summary Summary            `json:"summary"`
}

// Summarize prices the cart for the chosen fulfillment. Pickup carries no shipping cost.
func (s *Service) Summarize(ctx context.Context, subtotal money.Amount, fulfillment string) Summary {
	sum := Summary{Subtotal: subtotal, Total: subtotal}
	if domain.NormalizeFulfillment(fulfillment) == domain.FulfillmentDelivery {
		sum.Shipping = Quote(s.gateway.ShippingMethodsOrDefault(ctx, s.defaultFee), subtotal, s.defaultFee)
		sum.Total += sum.Shipping.Cost
	}
	return sum
}

// Submit validates the form, assembles the order and submits it. The session's cart is locked for
// the whole submission, so a repeated submit sees the emptied cart. On success the submitted lines
// and the form are cleared and a delivery address is remembered. A submission failure is returned
// as *domain.OrderSubmissionError and leaves cart and form untouched.
func (s *Service) Submit(ctx context.Context, session string, req Request) (Result, error) {
	fulfillment := domain.NormalizeFulfillment(req.Fulfillment)

	if err := s.SaveForm(ctx, session, req.Form); err != nil {
		s.logger.Warn("checkout form not saved", "session", session, "err", err)
	}

	var res Result
	err := s.carts.With(ctx, session, func(c *cart.Store) error {
		var err error
		res, err = s.submit(ctx, session, c, fulfillment, req.Form)
		return err
	})
	if err != nil {
		return Result{}, err
	}

	if err := s.ClearForm(ctx, session); err != nil {
		s.logger.Warn("checkout form not cleared", "session", session, "err", err)
	}
	if fulfillment == domain.FulfillmentDelivery {
		contact := req.Form.Contact()
		addr := SavedAddress{Address: contact.Address, Neighborhood: contact.Neighborhood, Reference: contact.Reference}
		if err := s.Remember(ctx, session, addr); err != nil {
			s.logger.Warn("address not remembered", "session", session, "err", err)
		}
	}
	return res, nil
}

func (s *Service) submit(ctx context.Context, session string, c *cart.Store, fulfillment string, f Form) (Result, error) {
	lines := c.Items()
	if len(lines) == 0 {
		return Result{}, domain.ValidationErrors{{Field: "cart", Code: "empty", Message: "Cart is empty"}}
	}

	sum := s.Summarize(ctx, c.Total(), fulfillment)
	if verrs := s.validator.Validate(f, fulfillment, sum.Total); len(verrs) > 0 {
		return Result{}, verrs
	}

	o := order.Build(
		lines,
		domain.Fulfillment{Type: fulfillment, Shipping: sum.Shipping},
		f.Contact(),
		s.payment(ctx, f),
		s.gateway.StoreInfoOrDefault(ctx),
	)

	placed, err := s.gateway.SubmitOrder(ctx, o)
	if err != nil {
		s.logger.Error("order submission failed", "session", session, "err", err)
		return Result{}, &domain.OrderSubmissionError{Err: err}
	}
	s.logger.Info("order submitted", "session", session, "order_id", placed.ID, "total", sum.Total.String())

	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ID)
	}
	if err := c.RemoveLines(ctx, ids); err != nil {
		s.logger.Error("cart not cleared after order", "session", session, "order_id", placed.ID, "err", err)
	}
	return Result{Order: placed, Summary: sum}, nil
}

// payment resolves the method title from the gateways and parses the tendered cash amount.
func (s *Service) payment(ctx context.Context, f Form) domain.Payment {
	p := domain.Payment{MethodID: f.PaymentMethod}
	for _, m := range s.gateway.PaymentMethodsOrDefault(ctx) {
		if m.ID == p.MethodID {
			p.Title = m.Title
			break
		}
	}
	if domain.IsCash(p.MethodID) && strings.TrimSpace(f.CashAmount) != "" {
		amount, err := money.Parse(f.CashAmount)
		if err != nil {
			s.logger.Warn("ignoring unparseable cash amount", "value", f.CashAmount, "err", errors.Cause(err))
		} else {
			p.CashAmount = amount
		}
	}
	return p
}
