package domain

import (
	"fmt"
)

// RecipeLinkKind selects which membership set a recipe link targets. Favorite
// and the shopping cart share the same add/remove contract, so the ledger is
// one operation parameterized by kind.
type RecipeLinkKind string

const (
	LinkFavorite RecipeLinkKind = "favorite"
	LinkCart     RecipeLinkKind = "shopping_cart"
)

var (
	MessageSuccessGetRecipes       = "success get recipes"
	MessageSuccessGetRecipeDetail  = "success get recipe detail"
	MessageSuccessCreateRecipe     = "recipe created successfully"
	MessageSuccessUpdateRecipe     = "recipe updated successfully"
	MessageSuccessDeleteRecipe     = "recipe deleted successfully"
	MessageSuccessAddFavorite      = "recipe added to favorites"
	MessageSuccessRemoveFavorite   = "recipe removed from favorites"
	MessageSuccessAddToCart        = "recipe added to shopping cart"
	MessageSuccessRemoveFromCart   = "recipe removed from shopping cart"
	MessageSuccessShoppingList     = "shopping list built successfully"
	MessageSuccessMailShoppingList = "shopping list sent to your email"

	MessageFailedGetRecipes       = "failed to get recipes"
	MessageFailedGetRecipeDetail  = "failed to get recipe detail"
	MessageFailedCreateRecipe     = "failed to create recipe"
	MessageFailedUpdateRecipe     = "failed to update recipe"
	MessageFailedDeleteRecipe     = "failed to delete recipe"
	MessageFailedAddFavorite      = "failed to add recipe to favorites"
	MessageFailedRemoveFavorite   = "failed to remove recipe from favorites"
	MessageFailedAddToCart        = "failed to add recipe to shopping cart"
	MessageFailedRemoveFromCart   = "failed to remove recipe from shopping cart"
	MessageFailedShoppingList     = "failed to build shopping list"
	MessageFailedMailShoppingList = "failed to send shopping list"

	ErrRecipeNotFound       = fmt.Errorf("%w: recipe not found", ErrNotFound)
	ErrRecipeNameTaken      = fmt.Errorf("%w: you already have a recipe with this name", ErrConflict)
	ErrNoTags               = fmt.Errorf("%w: at least one tag required", ErrValidation)
	ErrNoIngredients        = fmt.Errorf("%w: at least one ingredient required", ErrValidation)
	ErrDuplicateIngredients = fmt.Errorf("%w: ingredients must be unique", ErrValidation)
	ErrInvalidCookingTime   = fmt.Errorf("%w: cooking time must be positive", ErrValidation)
	ErrInvalidAmount        = fmt.Errorf("%w: ingredient amount must be positive", ErrValidation)
	ErrInvalidImagePayload  = fmt.Errorf("%w: image must be base64 encoded", ErrValidation)
	ErrNotRecipeAuthor      = fmt.Errorf("%w: only the author or an admin can edit a recipe", ErrForbidden)
	ErrAlreadyFavorited     = fmt.Errorf("%w: recipe already in favorites", ErrConflict)
	ErrAlreadyInCart        = fmt.Errorf("%w: recipe already in shopping cart", ErrConflict)
	ErrFavoriteNotFound     = fmt.Errorf("%w: recipe is not in favorites", ErrNotFound)
	ErrCartEntryNotFound    = fmt.Errorf("%w: recipe is not in shopping cart", ErrNotFound)
)

// ShoppingListHeader opens every rendered shopping list. The exact string is
// part of the download contract with the frontend.
const ShoppingListHeader = "Список покупок с сайта Foodgram:\n\n"

type (
	IngredientLineRequest struct {
		ID     string `json:"id" validate:"required,uuid"`
		Amount int    `json:"amount" validate:"required"`
	}

	CreateRecipeRequest struct {
		Name        string                  `json:"name" validate:"required,max=200"`
		Image       string                  `json:"image" validate:"required"`
		Text        string                  `json:"text" validate:"required"`
		CookingTime int                     `json:"cooking_time" validate:"required"`
		Tags        []string                `json:"tags"`
		Ingredients []IngredientLineRequest `json:"ingredients" validate:"dive"`
	}

	UpdateRecipeRequest struct {
		Name        string                  `json:"name" validate:"required,max=200"`
		Image       string                  `json:"image" validate:"omitempty"`
		Text        string                  `json:"text" validate:"required"`
		CookingTime int                     `json:"cooking_time" validate:"required"`
		Tags        []string                `json:"tags"`
		Ingredients []IngredientLineRequest `json:"ingredients" validate:"dive"`
	}

	IngredientLineResponse struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int    `json:"amount"`
	}

	RecipeResponse struct {
		ID               string                   `json:"id"`
		Tags             []TagResponse            `json:"tags"`
		Author           UserResponse             `json:"author"`
		Ingredients      []IngredientLineResponse `json:"ingredients"`
		IsFavorited      bool                     `json:"is_favorited"`
		IsInShoppingCart bool                     `json:"is_in_shopping_cart"`
		Name             string                   `json:"name"`
		Image            string                   `json:"image"`
		Text             string                   `json:"text"`
		CookingTime      int                      `json:"cooking_time"`
	}

	// SimpleRecipeResponse is the condensed recipe shape returned by the
	// favorite/cart ledger and subscription previews.
	SimpleRecipeResponse struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Image       string `json:"image"`
		CookingTime int    `json:"cooking_time"`
	}

	// RecipeFilter narrows the recipe list. Favorited and InCart are
	// viewer-relative and ignored for anonymous viewers.
	RecipeFilter struct {
		AuthorID  string
		TagSlugs  []string
		Favorited bool
		InCart    bool
	}

	ShoppingListItem struct {
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int    `json:"amount"`
	}
)
