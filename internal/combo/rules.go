package combo

import (
	"fmt"

	"pizza-storefront/internal/domain"
)

// Validate returns one error per violated bound per category; none when every category's
// pick count lies within [min, max].
func Validate(cfg domain.ComboConfiguration, sel domain.ComboSelection) domain.ValidationErrors {
	var errs domain.ValidationErrors
	for _, cat := range cfg {
		n := sel.Count(cat.ID)
		if n < cat.MinSelection {
			errs = append(errs, domain.ValidationError{
				Field:   cat.ID,
				Code:    "min_selection",
				Message: fmt.Sprintf("Select at least %d option(s) in %s", cat.MinSelection, cat.Name),
			})
		}
		if n > cat.MaxSelection {
			errs = append(errs, domain.ValidationError{
				Field:   cat.ID,
				Code:    "max_selection",
				Message: fmt.Sprintf("Select at most %d option(s) in %s", cat.MaxSelection, cat.Name),
			})
		}
	}
	return errs
}

// StepComplete reports whether the category at index has reached its minimum.
func StepComplete(cfg domain.ComboConfiguration, sel domain.ComboSelection, index int) bool {
	if index < 0 || index >= len(cfg) {
		return false
	}
	return sel.Count(cfg[index].ID) >= cfg[index].MinSelection
}

// StepReachable reports whether the wizard may show the step at index: every earlier step
// must be complete.
func StepReachable(cfg domain.ComboConfiguration, sel domain.ComboSelection, index int) bool {
	if index < 0 || index >= len(cfg) {
		return false
	}
	for i := 0; i < index; i++ {
		if !StepComplete(cfg, sel, i) {
			return false
		}
	}
	return true
}

func CanAddToCart(cfg domain.ComboConfiguration, sel domain.ComboSelection) bool {
	return len(Validate(cfg, sel)) == 0
}

// Toggle returns a new selection with pick switched in the category: an existing pick is
// removed, a single-choice category has its pick replaced, and otherwise the pick is appended
// while below the maximum. The input selection is never modified.
func Toggle(cfg domain.ComboConfiguration, sel domain.ComboSelection, categoryID string, pick domain.ComboPick) domain.ComboSelection {
	next := make(domain.ComboSelection, len(sel)+1)
	for k, v := range sel {
		next[k] = append([]domain.ComboPick(nil), v...)
	}
	cat, ok := cfg.Category(categoryID)
	if !ok {
		return next
	}

	current := next[categoryID]
	for i, p := range current {
		if p.ID == pick.ID {
			next[categoryID] = append(current[:i:i], current[i+1:]...)
			if len(next[categoryID]) == 0 {
				delete(next, categoryID)
			}
			return next
		}
	}
	switch {
	case cat.MaxSelection == 1:
		next[categoryID] = []domain.ComboPick{pick}
	case len(current) < cat.MaxSelection:
		next[categoryID] = append(current, pick)
	}
	return next
}
