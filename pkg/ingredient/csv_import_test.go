package ingredient

import (
	"context"
	"strings"
	"testing"

	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeIngredientRepository struct {
	ingredients map[string]*entities.Ingredient
}

func newFakeIngredientRepository() *fakeIngredientRepository {
	return &fakeIngredientRepository{ingredients: make(map[string]*entities.Ingredient)}
}

func (f *fakeIngredientRepository) CreateIngredient(_ context.Context, ing *entities.Ingredient) error {
	for _, existing := range f.ingredients {
		if existing.Name == ing.Name && existing.MeasurementUnit == ing.MeasurementUnit {
			return gorm.ErrDuplicatedKey
		}
	}
	if ing.ID == uuid.Nil {
		ing.ID = uuid.New()
	}
	f.ingredients[ing.ID.String()] = ing
	return nil
}

func (f *fakeIngredientRepository) GetIngredientByID(_ context.Context, id string) (*entities.Ingredient, error) {
	ing, ok := f.ingredients[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return ing, nil
}

func (f *fakeIngredientRepository) GetIngredientsByIDs(_ context.Context, ids []string) ([]*entities.Ingredient, error) {
	var ingredients []*entities.Ingredient
	for _, id := range ids {
		if ing, ok := f.ingredients[id]; ok {
			ingredients = append(ingredients, ing)
		}
	}
	return ingredients, nil
}

func (f *fakeIngredientRepository) GetIngredients(_ context.Context, namePrefix string) ([]*entities.Ingredient, error) {
	var ingredients []*entities.Ingredient
	for _, ing := range f.ingredients {
		if namePrefix == "" || strings.HasPrefix(strings.ToLower(ing.Name), strings.ToLower(namePrefix)) {
			ingredients = append(ingredients, ing)
		}
	}
	return ingredients, nil
}

func (f *fakeIngredientRepository) ExistsByNameAndUnit(_ context.Context, name, unit string) (bool, error) {
	for _, ing := range f.ingredients {
		if ing.Name == name && ing.MeasurementUnit == unit {
			return true, nil
		}
	}
	return false, nil
}

func TestImportIngredients(t *testing.T) {
	repo := newFakeIngredientRepository()
	service := NewIngredientService(repo)

	csv := "Flour,g\n,g\nFlour,g\n"
	summary, err := service.ImportIngredients(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, domain.ImportSummary{Imported: 1, Malformed: 1, Duplicate: 1}, summary)
	assert.Len(t, repo.ingredients, 1)
}

func TestImportIngredients_SameNameDifferentUnit(t *testing.T) {
	repo := newFakeIngredientRepository()
	service := NewIngredientService(repo)

	csv := "Milk,ml\nMilk,l\n"
	summary, err := service.ImportIngredients(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	// The same name under a different unit is a distinct catalog entry.
	assert.Equal(t, domain.ImportSummary{Imported: 2}, summary)
}

func TestImportIngredients_WrongColumnCount(t *testing.T) {
	repo := newFakeIngredientRepository()
	service := NewIngredientService(repo)

	csv := "Sugar,g,extra\nSalt\nPepper,g\n"
	summary, err := service.ImportIngredients(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, domain.ImportSummary{Imported: 1, Malformed: 2}, summary)
}

func TestImportIngredients_Idempotent(t *testing.T) {
	repo := newFakeIngredientRepository()
	service := NewIngredientService(repo)

	csv := "Flour,g\nSugar,g\nSalt,g\n"
	first, err := service.ImportIngredients(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, domain.ImportSummary{Imported: 3}, first)

	// Re-running the same source inserts nothing.
	second, err := service.ImportIngredients(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, domain.ImportSummary{Duplicate: 3}, second)
	assert.Len(t, repo.ingredients, 3)
}

func TestImportIngredients_EmptySource(t *testing.T) {
	service := NewIngredientService(newFakeIngredientRepository())

	summary, err := service.ImportIngredients(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, domain.ImportSummary{}, summary)
}
