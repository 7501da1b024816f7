package domain

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"

	"pizza-storefront/internal/money"
)

// ComboCategory bounds how many sub-items may be chosen from one category.
type ComboCategory struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MinSelection int    `json:"minSelection"`
	MaxSelection int    `json:"maxSelection"`
}

// ComboConfiguration is the ordered category list of a combo product. Over the wire it is a
// JSON object keyed by category id; decoding keeps the key order, which drives the wizard steps.
type ComboConfiguration []ComboCategory

// Category looks a category up by id.
func (c ComboConfiguration) Category(id string) (ComboCategory, bool) {
	for _, cat := range c {
		if cat.ID == id {
			return cat, true
		}
	}
	return ComboCategory{}, false
}

// IDs returns the category ids in step order.
func (c ComboConfiguration) IDs() []string {
	out := make([]string, 0, len(c))
	for _, cat := range c {
		out = append(out, cat.ID)
	}
	return out
}

// normalize applies the defaults and keeps 1 <= min <= max. A zero minimum is read as unset.
func (cat ComboCategory) normalize() ComboCategory {
	if cat.Name == "" {
		cat.Name = "Category"
	}
	if cat.MinSelection < 1 {
		cat.MinSelection = 1
	}
	if cat.MaxSelection < 1 {
		cat.MaxSelection = 1
	}
	if cat.MinSelection > cat.MaxSelection {
		cat.MaxSelection = cat.MinSelection
	}
	return cat
}

type comboCategoryWire struct {
	Name         string `json:"name"`
	MinSelection *int   `json:"minSelection"`
	MaxSelection *int   `json:"maxSelection"`
}

func (w comboCategoryWire) category(id string) ComboCategory {
	cat := ComboCategory{ID: id, Name: w.Name, MinSelection: 1, MaxSelection: 1}
	if w.MinSelection != nil {
		cat.MinSelection = *w.MinSelection
	}
	if w.MaxSelection != nil {
		cat.MaxSelection = *w.MaxSelection
	}
	return cat.normalize()
}

// UnmarshalJSON accepts the service's object form and the array form produced by older
// cart snapshots.
func (c *ComboConfiguration) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*c = nil
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '[' {
		var list []ComboCategory
		if err := json.Unmarshal(b, &list); err != nil {
			return err
		}
		out := make(ComboConfiguration, 0, len(list))
		for _, cat := range list {
			out = append(out, cat.normalize())
		}
		*c = out
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.Errorf("combo config: expected object, got %v", tok)
	}
	var out ComboConfiguration
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		id, _ := keyTok.(string)
		var w comboCategoryWire
		if err := dec.Decode(&w); err != nil {
			return errors.Wrapf(err, "combo config %s", id)
		}
		out = append(out, w.category(id))
	}
	*c = out
	return nil
}

// MarshalJSON writes the object form, preserving order.
func (c ComboConfiguration) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cat := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(cat.ID)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(struct {
			Name         string `json:"name"`
			MinSelection int    `json:"minSelection"`
			MaxSelection int    `json:"maxSelection"`
		}{cat.Name, cat.MinSelection, cat.MaxSelection})
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ComboPick is one chosen sub-item. Price is carried for a priced-sub-item policy and is
// ignored by the fixed-price policy.
type ComboPick struct {
	ID    int64        `json:"id"`
	Name  string       `json:"name"`
	Price money.Amount `json:"price,omitempty"`
}

// ComboSelection maps category ids to the ordered picks.
type ComboSelection map[string][]ComboPick

// Count returns the number of picks in a category.
func (s ComboSelection) Count(categoryID string) int {
	return len(s[categoryID])
}

// Has reports whether a product was picked in a category.
func (s ComboSelection) Has(categoryID string, productID int64) bool {
	for _, p := range s[categoryID] {
		if p.ID == productID {
			return true
		}
	}
	return false
}

// ProductConfig is the per-product entry of the configuration service.
type ProductConfig struct {
	IsCombo     bool               `json:"is_combo"`
	ComboConfig ComboConfiguration `json:"combo_config,omitempty"`
	Labels      []string           `json:"labels,omitempty"`
}

// PluginConfig is the full GET /config payload of the configuration service.
type PluginConfig struct {
	Products map[string]ProductConfig `json:"products"`
	Labels   []string                 `json:"labels"`
}
