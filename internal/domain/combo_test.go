package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComboConfiguration_ZeroMinimumReadsAsOne(t *testing.T) {
	var cfg ComboConfiguration
	require.NoError(t, json.Unmarshal([]byte(`{
		"postre": {"name": "Postre", "minSelection": 0, "maxSelection": 2},
		"salsa": {"minSelection": -3},
		"pizzas": {"name": "Pizzas", "minSelection": 3, "maxSelection": 2}
	}`), &cfg))

	assert.Equal(t, ComboConfiguration{
		{ID: "postre", Name: "Postre", MinSelection: 1, MaxSelection: 2},
		{ID: "salsa", Name: "Category", MinSelection: 1, MaxSelection: 1},
		{ID: "pizzas", Name: "Pizzas", MinSelection: 3, MaxSelection: 3},
	}, cfg)
}

func TestComboConfiguration_ArrayFormIsNormalized(t *testing.T) {
	var cfg ComboConfiguration
	require.NoError(t, json.Unmarshal([]byte(`[{"id":"bebida","name":"Bebida","minSelection":0,"maxSelection":0}]`), &cfg))
	assert.Equal(t, ComboConfiguration{{ID: "bebida", Name: "Bebida", MinSelection: 1, MaxSelection: 1}}, cfg)

	b, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"bebida":{"name":"Bebida","minSelection":1,"maxSelection":1}}`, string(b))
}
