package cart

import (
	"sort"
	"strings"

	"pizza-storefront/internal/domain"
)

// CustomizationDescription renders a line's customizations on one line for cart display,
// e.g. "Tamaño: Familiar | Extra queso: Yes | Note: sin cebolla".
func CustomizationDescription(line domain.LineItem) string {
	c := line.Customizations
	if c.IsEmpty() {
		return ""
	}

	var parts []string
	keys := make([]string, 0, len(c.Attributes))
	for k := range c.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+": "+c.Attributes[k])
	}
	for _, a := range c.Addons {
		if a.Value == "" {
			continue
		}
		parts = append(parts, a.Label+": "+a.Value)
	}
	for _, cat := range c.ComboConfig {
		picks := c.ComboSelections[cat.ID]
		if len(picks) == 0 {
			continue
		}
		parts = append(parts, cat.Name+": "+joinPicks(picks))
	}
	if c.SpecialInstructions != "" {
		parts = append(parts, "Note: "+c.SpecialInstructions)
	}
	return strings.Join(parts, " | ")
}

func joinPicks(picks []domain.ComboPick) string {
	names := make([]string, 0, len(picks))
	for _, p := range picks {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}
