// Package variation resolves which concrete variation of a variable product the customer picked.
package variation

import (
	"sort"
	"strings"

	"pizza-storefront/internal/domain"
)

// NormalizeName folds the naming differences between product attribute metadata and variation
// metadata: case, hyphens and the taxonomy prefixes.
func NormalizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.TrimPrefix(n, "attribute_")
	n = strings.TrimPrefix(n, "pa_")
	n = strings.ReplaceAll(n, "-", " ")
	return strings.Join(strings.Fields(n), " ")
}

// Match returns the first variation fully resolved by selected, keyed by attribute name.
// Every attribute a variation declares needs a selection; an empty option on the variation
// accepts any value. Partial selections, and variations declaring no attributes, yield nil.
func Match(selected map[string]string, variations []domain.Variation) *domain.Variation {
	norm := make(map[string]string, len(selected))
	for k, v := range selected {
		norm[NormalizeName(k)] = strings.TrimSpace(v)
	}
	for i := range variations {
		if matches(norm, variations[i]) {
			v := variations[i]
			return &v
		}
	}
	return nil
}

func matches(selected map[string]string, v domain.Variation) bool {
	if len(v.Attributes) == 0 {
		return false
	}
	for _, attr := range v.Attributes {
		got := selected[NormalizeName(attr.Name)]
		if got == "" {
			return false
		}
		want := strings.TrimSpace(attr.Option)
		if want != "" && !strings.EqualFold(got, want) {
			return false
		}
	}
	return true
}

// ResolveDefault picks the highest-priced variation; ties go to the earliest. It returns nil
// for an empty list.
func ResolveDefault(variations []domain.Variation) *domain.Variation {
	if len(variations) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(variations); i++ {
		if variations[i].Price > variations[best].Price {
			best = i
		}
	}
	v := variations[best]
	return &v
}

// PriceRange spans the positive variation prices. It reports false when there are none.
func PriceRange(variations []domain.Variation) (domain.PriceRange, bool) {
	var r domain.PriceRange
	found := false
	for _, v := range variations {
		if v.Price <= 0 {
			continue
		}
		if !found || v.Price < r.Min {
			r.Min = v.Price
		}
		if !found || v.Price > r.Max {
			r.Max = v.Price
		}
		found = true
	}
	return r, found
}

// DefaultSelection preselects the attributes of v. Options left open on v stay unselected.
func DefaultSelection(v *domain.Variation) map[string]string {
	sel := map[string]string{}
	if v == nil {
		return sel
	}
	for _, a := range v.Attributes {
		if a.Option != "" {
			sel[a.Name] = a.Option
		}
	}
	return sel
}

// Options returns the variation-determining attributes of p in position order.
func Options(p domain.Product) []domain.Attribute {
	var out []domain.Attribute
	for _, a := range p.Attributes {
		if a.Variation {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}
