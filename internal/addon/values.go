package addon

import (
	"fmt"

	"pizza-storefront/internal/domain"
	"pizza-storefront/internal/pricing"
)

// InitialValues assigns every field its type-appropriate starting value.
func InitialValues(fields []domain.AddonField) domain.AddonSelection {
	sel := make(domain.AddonSelection, len(fields))
	for _, f := range fields {
		sel[f.ID] = initialValue(f)
	}
	return sel
}

func initialValue(f domain.AddonField) domain.AddonValue {
	switch {
	case f.IsMulti():
		var picked []string
		for _, o := range f.Options {
			if o.Selected {
				picked = append(picked, o.Label)
			}
		}
		return domain.ListValue(picked...)
	case f.Type == domain.FieldNumber && f.Min != nil:
		return domain.NumberValue(*f.Min)
	case f.Type == domain.FieldBoolean:
		return domain.BoolValue(false)
	case f.IsChoice():
		for _, o := range f.Options {
			if o.Selected {
				return domain.TextValue(o.Label)
			}
		}
	}
	return domain.TextValue("")
}

// ValidateRequired reports every required field left empty.
func ValidateRequired(fields []domain.AddonField, sel domain.AddonSelection) domain.ValidationErrors {
	var errs domain.ValidationErrors
	for _, f := range fields {
		if f.Required && !provided(f, sel[f.ID]) {
			errs = append(errs, domain.ValidationError{
				Field:   f.ID,
				Code:    "required",
				Message: fmt.Sprintf("%s is required", f.Label),
			})
		}
	}
	return errs
}

// provided reports whether v counts as an answer for f. Zero is a valid number.
func provided(f domain.AddonField, v domain.AddonValue) bool {
	if f.Type == domain.FieldNumber && v.Kind == domain.ValueNumber {
		return true
	}
	return !v.IsEmpty()
}

// Validate adds option membership, choice cardinality and numeric bounds to the required check.
func Validate(fields []domain.AddonField, sel domain.AddonSelection) domain.ValidationErrors {
	errs := ValidateRequired(fields, sel)
	for _, f := range fields {
		v, ok := sel[f.ID]
		if !ok || !provided(f, v) {
			continue
		}
		if f.IsChoice() {
			errs = append(errs, validateChoices(f, v.Choices())...)
		}
		if f.Type == domain.FieldNumber && v.Kind == domain.ValueNumber {
			if f.Min != nil && v.Number < *f.Min {
				errs = append(errs, domain.ValidationError{Field: f.ID, Code: "min", Message: fmt.Sprintf("%s must be at least %v", f.Label, *f.Min)})
			}
			if f.Max != nil && v.Number > *f.Max {
				errs = append(errs, domain.ValidationError{Field: f.ID, Code: "max", Message: fmt.Sprintf("%s must be at most %v", f.Label, *f.Max)})
			}
		}
	}
	return errs
}

// validateChoices checks a select or radio holds one option and a multi-choice field holds
// distinct options, all of them declared.
func validateChoices(f domain.AddonField, choices []string) domain.ValidationErrors {
	var errs domain.ValidationErrors
	if !f.IsMulti() && len(choices) != 1 {
		errs = append(errs, domain.ValidationError{
			Field:   f.ID,
			Code:    "single_choice",
			Message: fmt.Sprintf("Choose one option of %s", f.Label),
		})
	}
	seen := make(map[string]struct{}, len(choices))
	for _, label := range choices {
		if _, dup := seen[label]; dup {
			errs = append(errs, domain.ValidationError{
				Field:   f.ID,
				Code:    "duplicate_option",
				Message: fmt.Sprintf("%q is selected more than once in %s", label, f.Label),
			})
			continue
		}
		seen[label] = struct{}{}
		if len(f.Options) == 0 {
			continue
		}
		if _, ok := f.Option(label); !ok {
			errs = append(errs, domain.ValidationError{
				Field:   f.ID,
				Code:    "invalid_option",
				Message: fmt.Sprintf("%q is not an option of %s", label, f.Label),
			})
		}
	}
	return errs
}

// Describe lists the populated fields in declaration order with their display value and the
// price they add to a line of the given quantity.
func Describe(fields []domain.AddonField, sel domain.AddonSelection, quantity int) []domain.AddonLine {
	var out []domain.AddonLine
	for _, f := range fields {
		v, ok := sel[f.ID]
		if !ok || v.IsEmpty() {
			continue
		}
		out = append(out, domain.AddonLine{
			FieldID: f.ID,
			Label:   f.Label,
			Value:   v.String(),
			Price:   pricing.FieldContribution(f, v, quantity),
		})
	}
	return out
}
