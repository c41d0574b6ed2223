package recipe

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"
	"Foodgram-Backend/internal/utils/mailing"
	"Foodgram-Backend/internal/utils/storage"
	"Foodgram-Backend/pkg/ingredient"
	"Foodgram-Backend/pkg/tag"
	"Foodgram-Backend/pkg/user"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	RecipeService interface {
		CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, authorID string) (domain.RecipeResponse, error)
		UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, editorID, editorRole string) (domain.RecipeResponse, error)
		DeleteRecipe(ctx context.Context, recipeID, editorID, editorRole string) error
		GetRecipe(ctx context.Context, recipeID, viewerID string) (domain.RecipeResponse, error)
		GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int, viewerID string) ([]domain.RecipeResponse, int64, error)

		AddRecipeLink(ctx context.Context, kind domain.RecipeLinkKind, userID, recipeID string) (domain.SimpleRecipeResponse, error)
		RemoveRecipeLink(ctx context.Context, kind domain.RecipeLinkKind, userID, recipeID string) error

		BuildShoppingList(ctx context.Context, userID string) (string, error)
		MailShoppingList(ctx context.Context, userID string) error
	}

	recipeService struct {
		recipeRepository     RecipeRepository
		tagRepository        tag.TagRepository
		ingredientRepository ingredient.IngredientRepository
		userRepository       user.UserRepository
		s3                   storage.AwsS3
	}
)

func NewRecipeService(
	recipeRepository RecipeRepository,
	tagRepository tag.TagRepository,
	ingredientRepository ingredient.IngredientRepository,
	userRepository user.UserRepository,
	s3 storage.AwsS3,
) RecipeService {
	return &recipeService{
		recipeRepository:     recipeRepository,
		tagRepository:        tagRepository,
		ingredientRepository: ingredientRepository,
		userRepository:       userRepository,
		s3:                   s3,
	}
}

// validateComposition checks the tag and ingredient sets in the order the
// API contract fixes: empty tags, empty ingredients, duplicated ingredient
// ids, unknown ingredients, non-positive cooking time, non-positive amounts.
func (s *recipeService) validateComposition(ctx context.Context, tagIDs []string, lines []domain.IngredientLineRequest, cookingTime int) ([]*entities.Tag, []*entities.Ingredient, error) {
	if len(tagIDs) == 0 {
		return nil, nil, domain.ErrNoTags
	}
	if len(lines) == 0 {
		return nil, nil, domain.ErrNoIngredients
	}

	seen := make(map[string]bool, len(lines))
	ingredientIDs := make([]string, 0, len(lines))
	for _, line := range lines {
		if seen[line.ID] {
			return nil, nil, domain.ErrDuplicateIngredients
		}
		seen[line.ID] = true
		ingredientIDs = append(ingredientIDs, line.ID)
	}

	ingredients, err := s.ingredientRepository.GetIngredientsByIDs(ctx, ingredientIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(ingredients) != len(ingredientIDs) {
		return nil, nil, domain.ErrIngredientNotFound
	}

	if cookingTime <= 0 {
		return nil, nil, domain.ErrInvalidCookingTime
	}
	for _, line := range lines {
		if line.Amount <= 0 {
			return nil, nil, domain.ErrInvalidAmount
		}
	}

	tags, err := s.tagRepository.GetTagsByIDs(ctx, tagIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(tags) != len(tagIDs) {
		return nil, nil, domain.ErrTagNotFound
	}

	return tags, ingredients, nil
}

func (s *recipeService) CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, authorID string) (domain.RecipeResponse, error) {
	tags, _, err := s.validateComposition(ctx, req.Tags, req.Ingredients, req.CookingTime)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	authorUUID, err := uuid.Parse(authorID)
	if err != nil {
		return domain.RecipeResponse{}, domain.ErrParseUUID
	}

	recipeID := uuid.New()

	imageURL, err := s.uploadImage(recipeID, req.Image)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	recipe := &entities.Recipe{
		ID:          recipeID,
		AuthorID:    authorUUID,
		Name:        req.Name,
		ImageURL:    imageURL,
		Text:        req.Text,
		CookingTime: req.CookingTime,
	}
	lines := buildIngredientLines(recipeID, req.Ingredients)

	if err := s.recipeRepository.CreateRecipeWithRelations(ctx, recipe, tags, lines); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.RecipeResponse{}, domain.ErrRecipeNameTaken
		}
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipe(ctx, recipeID.String(), authorID)
}

func (s *recipeService) UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, editorID, editorRole string) (domain.RecipeResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeResponse{}, err
	}

	if recipe.AuthorID.String() != editorID && editorRole != domain.RoleAdmin {
		return domain.RecipeResponse{}, domain.ErrNotRecipeAuthor
	}

	tags, _, err := s.validateComposition(ctx, req.Tags, req.Ingredients, req.CookingTime)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	recipe.Name = req.Name
	recipe.Text = req.Text
	recipe.CookingTime = req.CookingTime
	if req.Image != "" {
		imageURL, err := s.uploadImage(recipe.ID, req.Image)
		if err != nil {
			return domain.RecipeResponse{}, err
		}
		recipe.ImageURL = imageURL
	}

	// Ingredient lines are replaced from scratch, never merged. A line
	// omitted from the request is dropped from the recipe.
	lines := buildIngredientLines(recipe.ID, req.Ingredients)

	if err := s.recipeRepository.UpdateRecipeWithRelations(ctx, recipe, tags, lines); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.RecipeResponse{}, domain.ErrRecipeNameTaken
		}
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipe(ctx, recipeID, editorID)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, recipeID, editorID, editorRole string) error {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}

	if recipe.AuthorID.String() != editorID && editorRole != domain.RoleAdmin {
		return domain.ErrNotRecipeAuthor
	}

	if err := s.recipeRepository.DeleteRecipe(ctx, recipeID); err != nil {
		return err
	}

	if recipe.ImageURL != "" {
		objectKey := s.s3.GetObjectKeyFromLink(recipe.ImageURL)
		_ = s.s3.DeleteFile(objectKey)
	}
	return nil
}

func (s *recipeService) GetRecipe(ctx context.Context, recipeID, viewerID string) (domain.RecipeResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeResponse{}, err
	}
	return s.toRecipeResponse(ctx, recipe, viewerID)
}

func (s *recipeService) GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int, viewerID string) ([]domain.RecipeResponse, int64, error) {
	recipes, count, err := s.recipeRepository.GetRecipes(ctx, filter, viewerID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]domain.RecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		res, err := s.toRecipeResponse(ctx, r, viewerID)
		if err != nil {
			return nil, 0, err
		}
		responses = append(responses, res)
	}
	return responses, count, nil
}

func (s *recipeService) AddRecipeLink(ctx context.Context, kind domain.RecipeLinkKind, userID, recipeID string) (domain.SimpleRecipeResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.SimpleRecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.SimpleRecipeResponse{}, err
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.SimpleRecipeResponse{}, domain.ErrParseUUID
	}

	exists, err := s.recipeRepository.HasRecipeLink(ctx, kind, userID, recipeID)
	if err != nil {
		return domain.SimpleRecipeResponse{}, err
	}
	if exists {
		return domain.SimpleRecipeResponse{}, linkConflict(kind)
	}

	if err := s.recipeRepository.CreateRecipeLink(ctx, kind, userUUID, recipe.ID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.SimpleRecipeResponse{}, linkConflict(kind)
		}
		return domain.SimpleRecipeResponse{}, err
	}

	return ToSimpleRecipeResponse(recipe), nil
}

func (s *recipeService) RemoveRecipeLink(ctx context.Context, kind domain.RecipeLinkKind, userID, recipeID string) error {
	deleted, err := s.recipeRepository.DeleteRecipeLink(ctx, kind, userID, recipeID)
	if err != nil {
		return err
	}
	if !deleted {
		if kind == domain.LinkCart {
			return domain.ErrCartEntryNotFound
		}
		return domain.ErrFavoriteNotFound
	}
	return nil
}

func (s *recipeService) BuildShoppingList(ctx context.Context, userID string) (string, error) {
	items, err := s.recipeRepository.GetShoppingList(ctx, userID)
	if err != nil {
		return "", err
	}
	return RenderShoppingList(items), nil
}

func (s *recipeService) MailShoppingList(ctx context.Context, userID string) error {
	u, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	text, err := s.BuildShoppingList(ctx, userID)
	if err != nil {
		return err
	}

	return mailing.SendMail(u.Email, "Ваш список покупок", text)
}

// RenderShoppingList produces the plain-text download body: the fixed header
// followed by one "{name}, {amount} {unit}" line per ingredient. An empty
// cart renders the header alone.
func RenderShoppingList(items []domain.ShoppingListItem) string {
	var b strings.Builder
	b.WriteString(domain.ShoppingListHeader)
	for _, item := range items {
		b.WriteString(fmt.Sprintf("%s, %d %s\n", item.Name, item.Amount, item.MeasurementUnit))
	}
	return b.String()
}

func ToSimpleRecipeResponse(recipe *entities.Recipe) domain.SimpleRecipeResponse {
	return domain.SimpleRecipeResponse{
		ID:          recipe.ID.String(),
		Name:        recipe.Name,
		Image:       recipe.ImageURL,
		CookingTime: recipe.CookingTime,
	}
}

func linkConflict(kind domain.RecipeLinkKind) error {
	if kind == domain.LinkCart {
		return domain.ErrAlreadyInCart
	}
	return domain.ErrAlreadyFavorited
}

func buildIngredientLines(recipeID uuid.UUID, lines []domain.IngredientLineRequest) []*entities.IngredientInRecipe {
	built := make([]*entities.IngredientInRecipe, 0, len(lines))
	for _, line := range lines {
		built = append(built, &entities.IngredientInRecipe{
			ID:           uuid.New(),
			RecipeID:     recipeID,
			IngredientID: uuid.MustParse(line.ID),
			Amount:       line.Amount,
		})
	}
	return built
}

// uploadImage decodes a "data:image/...;base64," payload and stores it in S3,
// returning the public URL.
func (s *recipeService) uploadImage(recipeID uuid.UUID, payload string) (string, error) {
	if !strings.HasPrefix(payload, "data:image/") {
		return "", domain.ErrInvalidImagePayload
	}

	meta, encoded, found := strings.Cut(payload, ";base64,")
	if !found {
		return "", domain.ErrInvalidImagePayload
	}
	ext := strings.TrimPrefix(meta, "data:image/")

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", domain.ErrInvalidImagePayload
	}

	objectKey, err := s.s3.UploadFile(
		fmt.Sprintf("recipe-%s", recipeID.String()),
		data,
		ext,
		"recipes",
	)
	if err != nil {
		return "", err
	}
	return s.s3.GetPublicLinkKey(objectKey), nil
}

func (s *recipeService) toRecipeResponse(ctx context.Context, recipe *entities.Recipe, viewerID string) (domain.RecipeResponse, error) {
	res := domain.RecipeResponse{
		ID:          recipe.ID.String(),
		Name:        recipe.Name,
		Image:       recipe.ImageURL,
		Text:        recipe.Text,
		CookingTime: recipe.CookingTime,
		Tags:        make([]domain.TagResponse, 0, len(recipe.Tags)),
		Ingredients: make([]domain.IngredientLineResponse, 0, len(recipe.Ingredients)),
	}

	for _, t := range recipe.Tags {
		res.Tags = append(res.Tags, tag.ToTagResponse(t))
	}
	for _, line := range recipe.Ingredients {
		lineRes := domain.IngredientLineResponse{
			ID:     line.IngredientID.String(),
			Amount: line.Amount,
		}
		if line.Ingredient != nil {
			lineRes.Name = line.Ingredient.Name
			lineRes.MeasurementUnit = line.Ingredient.MeasurementUnit
		}
		res.Ingredients = append(res.Ingredients, lineRes)
	}

	if recipe.Author != nil {
		res.Author = domain.UserResponse{
			ID:        recipe.Author.ID.String(),
			Email:     recipe.Author.Email,
			Username:  recipe.Author.Username,
			FirstName: recipe.Author.FirstName,
			LastName:  recipe.Author.LastName,
		}
		if viewerID != "" && viewerID != recipe.AuthorID.String() {
			subscribed, err := s.userRepository.IsSubscribed(ctx, viewerID, recipe.AuthorID.String())
			if err != nil {
				return domain.RecipeResponse{}, err
			}
			res.Author.IsSubscribed = subscribed
		}
	}

	// Both flags stay false for anonymous viewers.
	if viewerID != "" {
		favorited, err := s.recipeRepository.HasRecipeLink(ctx, domain.LinkFavorite, viewerID, recipe.ID.String())
		if err != nil {
			return domain.RecipeResponse{}, err
		}
		inCart, err := s.recipeRepository.HasRecipeLink(ctx, domain.LinkCart, viewerID, recipe.ID.String())
		if err != nil {
			return domain.RecipeResponse{}, err
		}
		res.IsFavorited = favorited
		res.IsInShoppingCart = inCart
	}

	return res, nil
}
