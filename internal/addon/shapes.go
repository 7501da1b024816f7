package addon

import (
	"bytes"
	"encoding/json"
)

// Wrapper properties tried, in order, when the remote payload is an object.
var wrapperKeys = []string{"fields", "data", "items", "addons", "product_fields"}

// shapeMatcher returns the descriptor list a payload carries in one tolerated shape.
type shapeMatcher func(raw json.RawMessage) ([]map[string]any, bool)

// remoteShapes is the fixed priority order for the remote product-fields payload.
var remoteShapes = func() []shapeMatcher {
	shapes := []shapeMatcher{directArray}
	for _, key := range wrapperKeys {
		shapes = append(shapes, wrapped(key))
	}
	return append(shapes, firstArrayProperty, objectOfDescriptors)
}()

func matchShapes(raw json.RawMessage, shapes []shapeMatcher) []map[string]any {
	raw = unwrapString(raw)
	for _, shape := range shapes {
		if list, ok := shape(raw); ok && len(list) > 0 {
			return list
		}
	}
	return nil
}

func directArray(raw json.RawMessage) ([]map[string]any, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		var m map[string]any
		if err := json.Unmarshal(it, &m); err == nil && m != nil {
			out = append(out, m)
		}
	}
	return out, true
}

func wrapped(key string) shapeMatcher {
	return func(raw json.RawMessage) ([]map[string]any, bool) {
		props, ok := objectProps(raw)
		if !ok {
			return nil, false
		}
		for _, p := range props {
			if p.key == key {
				return directArray(unwrapString(p.value))
			}
		}
		return nil, false
	}
}

// firstArrayProperty takes the first array-valued property in document order.
func firstArrayProperty(raw json.RawMessage) ([]map[string]any, bool) {
	props, ok := objectProps(raw)
	if !ok {
		return nil, false
	}
	for _, p := range props {
		if list, ok := directArray(p.value); ok {
			return list, true
		}
	}
	return nil, false
}

// objectOfDescriptors reads {"k1": {...field...}, "k2": {...}} when the first value looks like a
// field descriptor: it has a type plus an id or a label.
func objectOfDescriptors(raw json.RawMessage) ([]map[string]any, bool) {
	props, ok := objectProps(raw)
	if !ok || len(props) == 0 {
		return nil, false
	}
	var first map[string]any
	if err := json.Unmarshal(props[0].value, &first); err != nil || !looksLikeDescriptor(first) {
		return nil, false
	}
	out := make([]map[string]any, 0, len(props))
	for _, p := range props {
		var m map[string]any
		if err := json.Unmarshal(p.value, &m); err == nil && m != nil {
			out = append(out, m)
		}
	}
	return out, true
}

func looksLikeDescriptor(m map[string]any) bool {
	if m == nil {
		return false
	}
	if _, ok := m["type"]; !ok {
		return false
	}
	_, hasID := m["id"]
	_, hasLabel := m["label"]
	return hasID || hasLabel
}

type prop struct {
	key   string
	value json.RawMessage
}

// objectProps decodes a JSON object keeping its key order.
func objectProps(raw json.RawMessage) ([]prop, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, false
	}
	var props []prop
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, _ := tok.(string)
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, false
		}
		props = append(props, prop{key: key, value: v})
	}
	return props, true
}

// unwrapString decodes meta values stored as a JSON document inside a JSON string.
func unwrapString(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return raw
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return raw
	}
	inner := bytes.TrimSpace([]byte(s))
	if len(inner) > 0 && (inner[0] == '[' || inner[0] == '{') {
		return inner
	}
	return raw
}
