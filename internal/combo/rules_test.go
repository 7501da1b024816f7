package combo

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pizza-storefront/internal/domain"
)

func wizard() domain.ComboConfiguration {
	return domain.ComboConfiguration{
		{ID: "pizzas", Name: "Pizzas", MinSelection: 2, MaxSelection: 3},
		{ID: "bebida", Name: "Bebida", MinSelection: 1, MaxSelection: 1},
		{ID: "postre", Name: "Postre", MinSelection: 1, MaxSelection: 1},
	}
}

func TestValidate_BebidaWithoutSelection(t *testing.T) {
	cfg := domain.ComboConfiguration{{ID: "bebida", Name: "Bebida", MinSelection: 1, MaxSelection: 1}}
	errs := Validate(cfg, domain.ComboSelection{})
	require.Len(t, errs, 1)
	assert.Equal(t, "bebida", errs[0].Field)
	assert.Contains(t, errs[0].Message, "Bebida")
}

func TestValidate_Bounds(t *testing.T) {
	cfg := wizard()
	sel := domain.ComboSelection{
		"pizzas": {{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}},
		"postre": {{ID: 9}},
	}
	errs := Validate(cfg, sel)
	require.Len(t, errs, 2)
	assert.Equal(t, "max_selection", errs[0].Code)
	assert.Equal(t, "pizzas", errs[0].Field)
	assert.Equal(t, "min_selection", errs[1].Code)
	assert.Equal(t, "bebida", errs[1].Field)

	ok := domain.ComboSelection{"pizzas": {{ID: 1}, {ID: 2}}, "bebida": {{ID: 5}}, "postre": {{ID: 9}}}
	assert.Empty(t, Validate(cfg, ok))
	assert.True(t, CanAddToCart(cfg, ok))
	assert.False(t, CanAddToCart(cfg, sel))
}

func TestStepGating(t *testing.T) {
	cfg := wizard()
	sel := domain.ComboSelection{"pizzas": {{ID: 1}}}

	assert.True(t, StepReachable(cfg, sel, 0))
	assert.False(t, StepComplete(cfg, sel, 0))
	assert.False(t, StepReachable(cfg, sel, 1))

	sel["pizzas"] = append(sel["pizzas"], domain.ComboPick{ID: 2})
	assert.True(t, StepReachable(cfg, sel, 1))
	assert.False(t, StepReachable(cfg, sel, 2))

	sel["bebida"] = []domain.ComboPick{{ID: 5}}
	assert.True(t, StepReachable(cfg, sel, 2))
	assert.False(t, StepComplete(cfg, sel, 2))
	sel["postre"] = []domain.ComboPick{{ID: 9}}
	assert.True(t, StepComplete(cfg, sel, 2))
	assert.False(t, StepReachable(cfg, sel, 3))
	assert.False(t, StepComplete(cfg, sel, -1))
}

func TestToggle(t *testing.T) {
	cfg := wizard()
	coke := domain.ComboPick{ID: 40, Name: "Coca-Cola"}
	fanta := domain.ComboPick{ID: 41, Name: "Fanta"}

	sel := Toggle(cfg, nil, "bebida", coke)
	assert.Equal(t, []domain.ComboPick{coke}, sel["bebida"])

	replaced := Toggle(cfg, sel, "bebida", fanta)
	assert.Equal(t, []domain.ComboPick{fanta}, replaced["bebida"])
	assert.Equal(t, []domain.ComboPick{coke}, sel["bebida"], "input selection is untouched")

	cleared := Toggle(cfg, replaced, "bebida", fanta)
	_, present := cleared["bebida"]
	assert.False(t, present)

	var pizzas domain.ComboSelection
	for id := int64(1); id <= 4; id++ {
		pizzas = Toggle(cfg, pizzas, "pizzas", domain.ComboPick{ID: id})
	}
	assert.Len(t, pizzas["pizzas"], 3, "appends stop at the maximum")

	pizzas = Toggle(cfg, pizzas, "pizzas", domain.ComboPick{ID: 2})
	assert.Equal(t, []int64{1, 3}, []int64{pizzas["pizzas"][0].ID, pizzas["pizzas"][1].ID})

	same := Toggle(cfg, pizzas, "unknown", coke)
	assert.Equal(t, pizzas, same)
}

type stubLister struct {
	mu      sync.Mutex
	byCat   map[string][]domain.Product
	failing map[string]bool
	filters []domain.ProductFilter
}

func (s *stubLister) FetchProducts(_ context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	s.mu.Lock()
	s.filters = append(s.filters, f)
	s.mu.Unlock()
	if s.failing[f.Category] {
		return nil, errors.New("catalog down")
	}
	return s.byCat[f.Category], nil
}

func TestEligibleProducts(t *testing.T) {
	lister := &stubLister{
		byCat: map[string][]domain.Product{
			"pizzas": {
				{ID: 1, Name: "Pepperoni", Status: "publish"},
				{ID: 77, Name: "Combo Familiar", Status: "publish"},
				{ID: 2, Name: "Oculta", Status: "publish", CatalogVisibility: "hidden"},
				{ID: 3, Name: "Borrador", Status: "draft"},
			},
		},
		failing: map[string]bool{"bebida": true},
	}
	cfg := domain.ComboConfiguration{
		{ID: "pizzas", Name: "Pizzas", MinSelection: 1, MaxSelection: 2},
		{ID: "bebida", Name: "Bebida", MinSelection: 1, MaxSelection: 1},
	}

	out := EligibleProducts(context.Background(), lister, 77, cfg, nil)
	require.Len(t, out["pizzas"], 1)
	assert.Equal(t, int64(1), out["pizzas"][0].ID)
	assert.NotNil(t, out["bebida"])
	assert.Empty(t, out["bebida"])
	assert.Len(t, lister.filters, 2)
	for _, f := range lister.filters {
		assert.Equal(t, "publish", f.Status)
	}
}
