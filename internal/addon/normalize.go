package addon

import (
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"pizza-storefront/internal/domain"
	"pizza-storefront/internal/money"
)

// rawField is the loose shape of a plugin field descriptor. Ids arrive as numbers or strings,
// booleans as "1" or true, amounts as numbers or numeric strings.
type rawField struct {
	ID            string      `mapstructure:"id"`
	Key           string      `mapstructure:"key"`
	Label         string      `mapstructure:"label"`
	Title         string      `mapstructure:"title"`
	Name          string      `mapstructure:"name"`
	Type          string      `mapstructure:"type"`
	Required      bool        `mapstructure:"required"`
	Pricing       any         `mapstructure:"pricing"`
	PriceType     string      `mapstructure:"price_type"`
	PricingType   string      `mapstructure:"pricing_type"`
	Price         float64     `mapstructure:"price"`
	PricingAmount float64     `mapstructure:"pricing_amount"`
	Options       []rawOption `mapstructure:"options"`
	Choices       []rawOption `mapstructure:"choices"`
	Min           *float64    `mapstructure:"min"`
	Max           *float64    `mapstructure:"max"`
}

type rawOption struct {
	Label         string  `mapstructure:"label"`
	Text          string  `mapstructure:"text"`
	Name          string  `mapstructure:"name"`
	Value         string  `mapstructure:"value"`
	Selected      bool    `mapstructure:"selected"`
	Pricing       any     `mapstructure:"pricing"`
	PriceType     string  `mapstructure:"price_type"`
	PricingType   string  `mapstructure:"pricing_type"`
	Price         float64 `mapstructure:"price"`
	PricingAmount float64 `mapstructure:"pricing_amount"`
}

type rawPricing struct {
	Enabled *bool   `mapstructure:"enabled"`
	Type    string  `mapstructure:"type"`
	Kind    string  `mapstructure:"kind"`
	Amount  float64 `mapstructure:"amount"`
	Value   float64 `mapstructure:"value"`
}

// Layout-only plugin field types that collect no input.
var layoutTypes = map[string]bool{
	"section":    true,
	"sectionend": true,
	"content":    true,
	"paragraph":  true,
	"divider":    true,
	"image":      true,
}

func weakDecode(in, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

// normalizeField converts one raw descriptor. It reports false for descriptors that cannot
// become an input: no id, layout-only, or undecodable.
func normalizeField(descriptor map[string]any) (domain.AddonField, bool) {
	var raw rawField
	if err := weakDecode(descriptor, &raw); err != nil {
		return domain.AddonField{}, false
	}
	id := strings.TrimSpace(firstNonEmpty(raw.ID, raw.Key))
	if id == "" {
		return domain.AddonField{}, false
	}
	rawType := strings.ToLower(strings.TrimSpace(raw.Type))
	if layoutTypes[rawType] {
		return domain.AddonField{}, false
	}

	f := domain.AddonField{
		ID:       id,
		Label:    firstNonEmpty(raw.Label, raw.Title, raw.Name, id),
		Type:     normalizeType(rawType),
		Required: raw.Required,
		Min:      raw.Min,
		Max:      raw.Max,
	}
	if p, ok := decodePricing(raw.Pricing, firstNonEmpty(raw.PricingType, raw.PriceType), firstNonZero(raw.PricingAmount, raw.Price)); ok {
		f.Pricing = p
	} else {
		f.Pricing = domain.Pricing{Kind: domain.PricingNone}
	}

	opts := raw.Options
	if len(opts) == 0 {
		opts = raw.Choices
	}
	for _, o := range opts {
		label := firstNonEmpty(o.Label, o.Text, o.Name, o.Value)
		if label == "" {
			continue
		}
		opt := domain.AddonOption{Label: label, Selected: o.Selected}
		if p, ok := decodePricing(o.Pricing, firstNonEmpty(o.PricingType, o.PriceType), firstNonZero(o.PricingAmount, o.Price)); ok {
			opt.Pricing = &p
		}
		f.Options = append(f.Options, opt)
	}
	return f, true
}

// decodePricing reads a nested pricing object, falling back to flat type/amount properties.
// A bare amount without a type is a flat fee.
func decodePricing(nested any, flatType string, flatAmount float64) (domain.Pricing, bool) {
	if m, ok := nested.(map[string]any); ok {
		var rp rawPricing
		if err := weakDecode(m, &rp); err == nil {
			if rp.Enabled != nil && !*rp.Enabled {
				return domain.Pricing{}, false
			}
			kind := normalizePricingKind(firstNonEmpty(rp.Kind, rp.Type))
			amount := money.FromFloat(firstNonZero(rp.Amount, rp.Value))
			if kind != domain.PricingNone && amount != 0 {
				return domain.Pricing{Kind: kind, Amount: amount}, true
			}
		}
	}
	if flatAmount == 0 {
		return domain.Pricing{}, false
	}
	kind := domain.PricingFlat
	if flatType != "" {
		kind = normalizePricingKind(flatType)
	}
	if kind == domain.PricingNone {
		return domain.Pricing{}, false
	}
	return domain.Pricing{Kind: kind, Amount: money.FromFloat(flatAmount)}, true
}

func normalizeType(t string) string {
	switch t {
	case "checkboxes", "multi-select", "multiselect", "multi-image-swatch", "multi-color-swatch", "multi-text-swatch":
		return domain.FieldCheckboxMulti
	case "true-false", "checkbox", "boolean", "toggle":
		return domain.FieldBoolean
	case "image-swatch", "color-swatch", "text-swatch":
		return domain.FieldRadio
	case "select", "radio", "text", "textarea", "number", "email", "file", "date", "color":
		return t
	case "checkbox-multi":
		return domain.FieldCheckboxMulti
	default:
		return domain.FieldText
	}
}

func normalizePricingKind(k string) string {
	switch strings.ToLower(strings.TrimSpace(k)) {
	case "fixed", "flat", "fx":
		return domain.PricingFlat
	case "qty", "quantity", "per-unit-quantity":
		return domain.PricingPerUnitQuantity
	case "char", "chars", "nr-chars", "per-character":
		return domain.PricingPerCharacter
	default:
		return domain.PricingNone
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(vals ...float64) float64 {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}
