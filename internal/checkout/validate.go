package checkout

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"pizza-storefront/internal/domain"
	"pizza-storefront/internal/money"
)

// phonePattern accepts Chilean mobile numbers with or without the +56 prefix.
var phonePattern = regexp.MustCompile(`^(\+56)?9\d{8}$`)

type contactInput struct {
	Name          string `json:"customerName" validate:"required,min=3"`
	Phone         string `json:"phone" validate:"required,phone_cl"`
	Email         string `json:"email" validate:"required,email"`
	PaymentMethod string `json:"paymentMethod" validate:"required"`
}

type deliveryInput struct {
	Address      string `json:"address" validate:"required"`
	Neighborhood string `json:"neighborhood" validate:"required"`
}

// Validator checks the checkout form. It is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("phone_cl", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(strings.Join(strings.Fields(fl.Field().String()), ""))
	})
	return &Validator{v: v}
}

// Validate returns one error per offending field. total is what the customer pays, delivery fee
// included; a cash amount, when given, must cover it.
func (val *Validator) Validate(f Form, fulfillment string, total money.Amount) domain.ValidationErrors {
	var out domain.ValidationErrors

	out = append(out, val.structErrors(contactInput{
		Name:          strings.TrimSpace(f.Name),
		Phone:         f.Phone,
		Email:         strings.TrimSpace(f.Email),
		PaymentMethod: f.PaymentMethod,
	})...)

	if fulfillment == domain.FulfillmentDelivery {
		out = append(out, val.structErrors(deliveryInput{
			Address:      strings.TrimSpace(f.Address),
			Neighborhood: strings.TrimSpace(f.Neighborhood),
		})...)
	}

	if domain.IsCash(f.PaymentMethod) && strings.TrimSpace(f.CashAmount) != "" {
		amount, err := money.Parse(f.CashAmount)
		if err != nil {
			out = append(out, domain.ValidationError{Field: "cashAmount", Code: "invalid", Message: "Cash amount must be a number"})
		} else if err := val.v.Var(int64(amount), fmt.Sprintf("gte=%d", int64(total))); err != nil {
			out = append(out, domain.ValidationError{
				Field:   "cashAmount",
				Code:    "min",
				Message: "Cash amount must be at least " + money.Format(total),
			})
		}
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

func (val *Validator) structErrors(in any) domain.ValidationErrors {
	err := val.v.Struct(in)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return domain.ValidationErrors{{Field: "form", Code: "invalid", Message: err.Error()}}
	}
	out := make(domain.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, domain.ValidationError{
			Field:   fe.Field(),
			Code:    fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

var fieldLabels = map[string]string{
	"customerName":  "Name",
	"phone":         "Phone",
	"email":         "Email",
	"paymentMethod": "Payment method",
	"address":       "Address",
	"neighborhood":  "Neighborhood",
}

func message(fe validator.FieldError) string {
	label := fieldLabels[fe.Field()]
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "min":
		return label + " must be at least " + fe.Param() + " characters"
	case "email":
		return "Invalid email"
	case "phone_cl":
		return "Invalid phone format (e.g. +56912345678)"
	}
	return label + " is invalid"
}
