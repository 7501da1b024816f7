// Package checkout drives the checkout flow: form and address persistence, contact and payment
// validation, the shipping quote and order submission.
package checkout

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"pizza-storefront/internal/domain"
	"pizza-storefront/internal/storage"
)

// Storage key prefixes; the session id is appended.
const (
	FormKeyPrefix    = "checkoutFormData"
	AddressKeyPrefix = "savedAddresses"
)

func FormKey(session string) string    { return FormKeyPrefix + ":" + session }
func AddressKey(session string) string { return AddressKeyPrefix + ":" + session }

// Form is the checkout form as the customer fills it in. CashAmount keeps the raw input.
type Form struct {
	Name          string `json:"customerName"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	Neighborhood  string `json:"neighborhood"`
	Reference     string `json:"reference"`
	Notes         string `json:"notes"`
	PaymentMethod string `json:"paymentMethod"`
	CashAmount    string `json:"cashAmount"`
}

// DefaultForm is the empty form with cash preselected.
func DefaultForm() Form {
	return Form{PaymentMethod: domain.PaymentCash}
}

// Contact extracts the contact block of the form.
func (f Form) Contact() domain.Contact {
	return domain.Contact{
		Name:         strings.TrimSpace(f.Name),
		Email:        strings.TrimSpace(f.Email),
		Phone:        strings.Join(strings.Fields(f.Phone), ""),
		Address:      strings.TrimSpace(f.Address),
		Neighborhood: strings.TrimSpace(f.Neighborhood),
		Reference:    strings.TrimSpace(f.Reference),
		Notes:        strings.TrimSpace(f.Notes),
	}
}

// SavedAddress is one entry of the delivery address history.
type SavedAddress struct {
	Address      string `json:"address"`
	Neighborhood string `json:"neighborhood"`
	Reference    string `json:"reference"`
}

// LoadForm returns the session's saved form, or the default form when nothing readable is stored.
func (s *Service) LoadForm(ctx context.Context, session string) (Form, error) {
	f := DefaultForm()
	found, err := storage.GetJSON(ctx, s.storage, FormKey(session), &f)
	switch {
	case err != nil && found:
		s.logger.Warn("discarding unreadable checkout form", "session", session, "err", err)
		return DefaultForm(), nil
	case err != nil:
		return DefaultForm(), errors.Wrap(err, "load checkout form")
	}
	return f, nil
}

func (s *Service) SaveForm(ctx context.Context, session string, f Form) error {
	return errors.Wrap(storage.SetJSON(ctx, s.storage, FormKey(session), f), "save checkout form")
}

func (s *Service) ClearForm(ctx context.Context, session string) error {
	return errors.Wrap(s.storage.Delete(ctx, FormKey(session)), "clear checkout form")
}

// Addresses returns the session's address history, oldest first.
func (s *Service) Addresses(ctx context.Context, session string) ([]SavedAddress, error) {
	var list []SavedAddress
	found, err := storage.GetJSON(ctx, s.storage, AddressKey(session), &list)
	switch {
	case err != nil && found:
		s.logger.Warn("discarding unreadable address history", "session", session, "err", err)
		return []SavedAddress{}, nil
	case err != nil:
		return nil, errors.Wrap(err, "load saved addresses")
	}
	if list == nil {
		list = []SavedAddress{}
	}
	return list, nil
}

// Remember appends the address unless one with the same address and neighborhood is stored.
func (s *Service) Remember(ctx context.Context, session string, a SavedAddress) error {
	if strings.TrimSpace(a.Address) == "" {
		return nil
	}
	list, err := s.Addresses(ctx, session)
	if err != nil {
		return err
	}
	for _, existing := range list {
		if existing.Address == a.Address && existing.Neighborhood == a.Neighborhood {
			return nil
		}
	}
	list = append(list, a)
	return errors.Wrap(storage.SetJSON(ctx, s.storage, AddressKey(session), list), "save addresses")
}
