package recipe

import (
	"context"

	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	RecipeRepository interface {
		CreateRecipeWithRelations(ctx context.Context, recipe *entities.Recipe, tags []*entities.Tag, lines []*entities.IngredientInRecipe) error
		UpdateRecipeWithRelations(ctx context.Context, recipe *entities.Recipe, tags []*entities.Tag, lines []*entities.IngredientInRecipe) error
		GetRecipeByID(ctx context.Context, id string) (*entities.Recipe, error)
		GetRecipes(ctx context.Context, filter domain.RecipeFilter, viewerID string, page, limit int) ([]*entities.Recipe, int64, error)
		GetRecipesByAuthor(ctx context.Context, authorID string, limit int) ([]*entities.Recipe, error)
		CountRecipesByAuthor(ctx context.Context, authorID string) (int64, error)
		DeleteRecipe(ctx context.Context, id string) error

		CreateRecipeLink(ctx context.Context, kind domain.RecipeLinkKind, userID, recipeID uuid.UUID) error
		DeleteRecipeLink(ctx context.Context, kind domain.RecipeLinkKind, userID, recipeID string) (bool, error)
		HasRecipeLink(ctx context.Context, kind domain.RecipeLinkKind, userID, recipeID string) (bool, error)

		GetShoppingList(ctx context.Context, userID string) ([]domain.ShoppingListItem, error)
	}

	recipeRepository struct {
		db *gorm.DB
	}
)

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

// CreateRecipeWithRelations commits the recipe row, its tag set and its
// ingredient lines as one transaction. A partially created recipe is never
// visible to concurrent readers.
func (r *recipeRepository) CreateRecipeWithRelations(ctx context.Context, recipe *entities.Recipe, tags []*entities.Tag, lines []*entities.IngredientInRecipe) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(recipe).Error; err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Tags").Append(tags); err != nil {
			return err
		}
		return tx.Create(lines).Error
	})
}

// UpdateRecipeWithRelations saves the recipe fields, replaces the tag set
// wholesale and re-inserts the ingredient lines from scratch, atomically.
func (r *recipeRepository) UpdateRecipeWithRelations(ctx context.Context, recipe *entities.Recipe, tags []*entities.Tag, lines []*entities.IngredientInRecipe) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "Ingredients", "Author").Save(recipe).Error; err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Tags").Replace(tags); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).
			Delete(&entities.IngredientInRecipe{}).Error; err != nil {
			return err
		}
		return tx.Create(lines).Error
	})
}

func (r *recipeRepository) GetRecipeByID(ctx context.Context, id string) (*entities.Recipe, error) {
	var recipe entities.Recipe
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Where("id = ?", id).
		First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) GetRecipes(ctx context.Context, filter domain.RecipeFilter, viewerID string, page, limit int) ([]*entities.Recipe, int64, error) {
	var recipes []*entities.Recipe
	var count int64
	offset := (page - 1) * limit

	query := r.db.WithContext(ctx).Model(&entities.Recipe{})

	if filter.AuthorID != "" {
		query = query.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		query = query.
			Joins("JOIN recipe_tags ON recipe_tags.recipe_id = recipes.id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
	}
	// Viewer-relative filters are ignored for anonymous viewers.
	if filter.Favorited && viewerID != "" {
		query = query.
			Joins("JOIN favorites ON favorites.recipe_id = recipes.id").
			Where("favorites.user_id = ?", viewerID)
	}
	if filter.InCart && viewerID != "" {
		query = query.
			Joins("JOIN shopping_list_entries ON shopping_list_entries.recipe_id = recipes.id").
			Where("shopping_list_entries.user_id = ?", viewerID)
	}

	if err := query.Distinct("recipes.id").Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Distinct("recipes.*").
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Offset(offset).
		Limit(limit).
		Order("pub_date desc").
		Find(&recipes).Error; err != nil {
		return nil, 0, err
	}

	return recipes, count, nil
}

func (r *recipeRepository) GetRecipesByAuthor(ctx context.Context, authorID string, limit int) ([]*entities.Recipe, error) {
	var recipes []*entities.Recipe

	query := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("pub_date desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

func (r *recipeRepository) CountRecipesByAuthor(ctx context.Context, authorID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Recipe{}).
		Where("author_id = ?", authorID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *recipeRepository) DeleteRecipe(ctx context.Context, id string) error {
	// Join rows, favorites and cart entries go with the recipe via the
	// ON DELETE CASCADE constraints.
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Recipe{}).Error
}

// linkModel maps a ledger kind onto its membership table.
func linkModel(kind domain.RecipeLinkKind) interface{} {
	if kind == domain.LinkCart {
		return &entities.ShoppingListEntry{}
	}
	return &entities.Favorite{}
}

func (r *recipeRepository) CreateRecipeLink(ctx context.Context, kind domain.RecipeLinkKind, userID, recipeID uuid.UUID) error {
	if kind == domain.LinkCart {
		entry := entities.ShoppingListEntry{ID: uuid.New(), UserID: userID, RecipeID: recipeID}
		return r.db.WithContext(ctx).Create(&entry).Error
	}
	favorite := entities.Favorite{ID: uuid.New(), UserID: userID, RecipeID: recipeID}
	return r.db.WithContext(ctx).Create(&favorite).Error
}

func (r *recipeRepository) DeleteRecipeLink(ctx context.Context, kind domain.RecipeLinkKind, userID, recipeID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(linkModel(kind))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *recipeRepository) HasRecipeLink(ctx context.Context, kind domain.RecipeLinkKind, userID, recipeID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(linkModel(kind)).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetShoppingList folds every recipe in the user's cart into one row per
// ingredient with the summed amount, ordered by ingredient name.
func (r *recipeRepository) GetShoppingList(ctx context.Context, userID string) ([]domain.ShoppingListItem, error) {
	var items []domain.ShoppingListItem

	if err := r.db.WithContext(ctx).
		Model(&entities.IngredientInRecipe{}).
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(ingredient_in_recipes.amount) AS amount").
		Joins("JOIN ingredients ON ingredients.id = ingredient_in_recipes.ingredient_id").
		Joins("JOIN shopping_list_entries ON shopping_list_entries.recipe_id = ingredient_in_recipes.recipe_id").
		Where("shopping_list_entries.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name asc").
		Scan(&items).Error; err != nil {
		return nil, err
	}

	return items, nil
}
