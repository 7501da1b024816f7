package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"pizza-storefront/internal/money"
)

// Addon field types after normalization.
const (
	FieldText          = "text"
	FieldTextarea      = "textarea"
	FieldNumber        = "number"
	FieldEmail         = "email"
	FieldSelect        = "select"
	FieldRadio         = "radio"
	FieldCheckboxMulti = "checkbox-multi"
	FieldFile          = "file"
	FieldDate          = "date"
	FieldColor         = "color"
	FieldBoolean       = "boolean"
)

// Pricing rule kinds.
const (
	PricingNone            = "none"
	PricingFlat            = "flat"
	PricingPerUnitQuantity = "per-unit-quantity"
	PricingPerCharacter    = "per-character"
)

// AddonField is the normalized form of a dynamically configured product field.
type AddonField struct {
	ID       string        `json:"id"`
	Label    string        `json:"label"`
	Type     string        `json:"type"`
	Required bool          `json:"required"`
	Pricing  Pricing       `json:"pricing"`
	Options  []AddonOption `json:"options,omitempty"`
	Min      *float64      `json:"min,omitempty"`
	Max      *float64      `json:"max,omitempty"`
}

type Pricing struct {
	Kind   string       `json:"kind"`
	Amount money.Amount `json:"amount"`
}

// Priced reports whether the rule charges anything.
func (p Pricing) Priced() bool {
	return p.Kind != "" && p.Kind != PricingNone && p.Amount != 0
}

type AddonOption struct {
	Label    string   `json:"label"`
	Pricing  *Pricing `json:"pricing,omitempty"`
	Selected bool     `json:"selected,omitempty"`
}

// IsMulti reports whether the field collects a list of option labels.
func (f AddonField) IsMulti() bool {
	return f.Type == FieldCheckboxMulti
}

// IsChoice reports whether the field picks from its option list.
func (f AddonField) IsChoice() bool {
	return f.Type == FieldSelect || f.Type == FieldRadio || f.Type == FieldCheckboxMulti
}

// IsTextual reports whether per-character pricing applies to the field.
func (f AddonField) IsTextual() bool {
	return f.Type == FieldText || f.Type == FieldTextarea || f.Type == FieldEmail
}

// Option returns the option with the given label.
func (f AddonField) Option(label string) (AddonOption, bool) {
	for _, o := range f.Options {
		if o.Label == label {
			return o, true
		}
	}
	return AddonOption{}, false
}

// AddonValue kinds.
const (
	ValueEmpty  = ""
	ValueText   = "text"
	ValueNumber = "number"
	ValueBool   = "bool"
	ValueList   = "list"
	ValueFile   = "file"
)

// AddonValue is one field's selection. Its JSON form is the natural one: a string, number,
// boolean, list of strings, {"file": name} or null.
type AddonValue struct {
	Kind   string
	Text   string
	Number float64
	Bool   bool
	List   []string
	File   string
}

func TextValue(s string) AddonValue { return AddonValue{Kind: ValueText, Text: s} }
func NumberValue(n float64) AddonValue { return AddonValue{Kind: ValueNumber, Number: n} }
func BoolValue(b bool) AddonValue { return AddonValue{Kind: ValueBool, Bool: b} }
func ListValue(l ...string) AddonValue { return AddonValue{Kind: ValueList, List: l} }
func FileValue(name string) AddonValue { return AddonValue{Kind: ValueFile, File: name} }

// IsEmpty reports whether nothing was chosen: "", 0, false, an empty list or no file.
func (v AddonValue) IsEmpty() bool {
	switch v.Kind {
	case ValueText:
		return strings.TrimSpace(v.Text) == ""
	case ValueNumber:
		return v.Number == 0
	case ValueBool:
		return !v.Bool
	case ValueList:
		return len(v.List) == 0
	case ValueFile:
		return v.File == ""
	default:
		return true
	}
}

// Choices returns the selected option labels for choice fields.
func (v AddonValue) Choices() []string {
	switch v.Kind {
	case ValueList:
		return v.List
	case ValueText:
		if v.Text != "" {
			return []string{v.Text}
		}
	}
	return nil
}

// String stringifies the value for order metadata; lists are joined with ", ".
func (v AddonValue) String() string {
	switch v.Kind {
	case ValueText:
		return v.Text
	case ValueNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case ValueBool:
		if v.Bool {
			return "Yes"
		}
		return "No"
	case ValueList:
		return strings.Join(v.List, ", ")
	case ValueFile:
		return v.File
	}
	return ""
}

func (v AddonValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueText:
		return json.Marshal(v.Text)
	case ValueNumber:
		return json.Marshal(v.Number)
	case ValueBool:
		return json.Marshal(v.Bool)
	case ValueList:
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	case ValueFile:
		return json.Marshal(map[string]string{"file": v.File})
	}
	return []byte("null"), nil
}

func (v *AddonValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*v = AddonValue{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = TextValue(s)
	case 't', 'f':
		var x bool
		if err := json.Unmarshal(b, &x); err != nil {
			return err
		}
		*v = BoolValue(x)
	case '[':
		var l []string
		if err := json.Unmarshal(b, &l); err != nil {
			return err
		}
		*v = ListValue(l...)
	case '{':
		var f struct {
			File string `json:"file"`
		}
		if err := json.Unmarshal(b, &f); err != nil {
			return err
		}
		*v = FileValue(f.File)
	default:
		var n float64
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*v = NumberValue(n)
	}
	return nil
}

// AddonSelection maps field ids to the user's values.
type AddonSelection map[string]AddonValue

// AddonLine is a populated addon as shown in the cart and flattened into order metadata.
type AddonLine struct {
	FieldID string       `json:"field_id"`
	Label   string       `json:"label"`
	Value   string       `json:"value"`
	Price   money.Amount `json:"price,omitempty"`
}
