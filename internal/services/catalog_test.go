package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"nutriscan/internal/apperr"
	"nutriscan/internal/catalog"
	"nutriscan/internal/models"
	"nutriscan/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngredientService(t *testing.T) {
	gdb := testutil.NewDB(t)
	svc := NewIngredientService(gdb)
	ctx := context.Background()

	ing, err := svc.Create(ctx, CreateIngredientInput{Name: " Aspartame ", RiskLevel: "MEDIUM", Aliases: []string{"E951"}})
	require.NoError(t, err)
	assert.Equal(t, "Aspartame", ing.Name)
	assert.Equal(t, models.RiskMedium, ing.RiskLevel)

	got, err := svc.Get(ctx, ing.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"E951"}, []string(got.Aliases))

	_, err = svc.Create(ctx, CreateIngredientInput{Name: "Aspartame"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	_, err = svc.Create(ctx, CreateIngredientInput{Name: "Stevia", RiskLevel: "deadly"})
	assert.True(t, apperr.Is(err, apperr.KindInvalidArgument))
	_, err = svc.Create(ctx, CreateIngredientInput{Name: " "})
	assert.True(t, apperr.Is(err, apperr.KindInvalidArgument))
	_, err = svc.Get(ctx, 9999)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	stevia, err := svc.Create(ctx, CreateIngredientInput{Name: "Stevia"})
	require.NoError(t, err)
	assert.Equal(t, models.RiskUnknown, stevia.RiskLevel)
	require.NoError(t, gdb.Model(stevia).UpdateColumn("discussion_count", 3).Error)

	trending, err := svc.Trending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, trending, 1)
	assert.Equal(t, "Stevia", trending[0].Name)

	ensured, err := svc.EnsureByNames(ctx, []string{"Stevia", "Water", "water", "", "Citric Acid"})
	require.NoError(t, err)
	names := make([]string, 0, len(ensured))
	for _, e := range ensured {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Citric Acid", "Stevia", "Water"}, names)

	var count int64
	require.NoError(t, gdb.Model(&models.Ingredient{}).Count(&count).Error)
	assert.Equal(t, int64(4), count)
}

type fakeLookup struct {
	calls   atomic.Int32
	product *catalog.Product
	err     error
}

func (f *fakeLookup) Lookup(_ context.Context, barcode string) (*catalog.Product, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	p := *f.product
	p.Barcode = barcode
	return &p, nil
}

func TestLookupByBarcodeFetchesOnce(t *testing.T) {
	gdb := testutil.NewDB(t)
	pct := 30.0
	lookup := &fakeLookup{product: &catalog.Product{
		Name:       "Granola",
		Brand:      "Oatly Things",
		NutriScore: "b",
		Ingredients: []models.ProductIngredient{
			{Name: "Oats", Percentage: &pct},
			{Name: "Honey"},
		},
		Nutriments: []byte(`{"sugars_100g": 12}`),
	}}
	svc := NewProductService(gdb, lookup, NewIngredientService(gdb))
	ctx := context.Background()

	p, err := svc.LookupByBarcode(ctx, "12345678")
	require.NoError(t, err)
	assert.Equal(t, "Granola", p.Name)
	assert.Equal(t, "b", p.NutriScore)
	require.Len(t, p.Ingredients, 2)
	assert.JSONEq(t, `{"sugars_100g": 12}`, string(p.NutritionData))

	again, err := svc.LookupByBarcode(ctx, "12345678")
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
	assert.Equal(t, int32(1), lookup.calls.Load())

	var oats models.Ingredient
	require.NoError(t, gdb.Where("name = ?", "Oats").First(&oats).Error)
}

func TestLookupByBarcodePlaceholder(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"unknown product", catalog.ErrProductNotFound},
		{"catalog down", apperr.Upstream(errors.New("dial tcp"), "product catalog unreachable")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gdb := testutil.NewDB(t)
			svc := NewProductService(gdb, &fakeLookup{err: tt.err}, nil)

			p, err := svc.LookupByBarcode(context.Background(), "0000000000000")
			require.NoError(t, err)
			assert.Equal(t, "Unknown product", p.Name)
			assert.Equal(t, "none", p.NutriScore)
		})
	}
}

func TestLookupByBarcodeValidation(t *testing.T) {
	svc := NewProductService(testutil.NewDB(t), nil, nil)
	for _, code := range []string{"", "1234567", "123456789012345", "12345abc"} {
		_, err := svc.LookupByBarcode(context.Background(), code)
		assert.True(t, apperr.Is(err, apperr.KindInvalidArgument), code)
	}
}

func TestLookupByBarcodeConcurrentMisses(t *testing.T) {
	gdb := testutil.NewDB(t)
	svc := NewProductService(gdb, &fakeLookup{product: &catalog.Product{Name: "Soda", NutriScore: "e"}}, nil)

	var wg sync.WaitGroup
	ids := make([]uint, 8)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := svc.LookupByBarcode(context.Background(), "87654321")
			if assert.NoError(t, err) {
				ids[i] = p.ID
			}
		}()
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	var count int64
	require.NoError(t, gdb.Model(&models.Product{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
