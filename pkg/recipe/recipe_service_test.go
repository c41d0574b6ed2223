package recipe

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ---------------------------------------------------------------------------
// In-memory fakes
// ---------------------------------------------------------------------------

// fakeRecipeRepository keeps recipes and link sets in memory. The authors and
// catalog maps stand in for the Author/Ingredient preloads the real
// repository performs.
type fakeRecipeRepository struct {
	recipes   map[string]*entities.Recipe
	favorites map[string]bool // "user/recipe"
	cart      map[string]bool
	authors   map[string]*entities.User
	catalog   map[string]*entities.Ingredient
}

func newFakeRecipeRepository() *fakeRecipeRepository {
	return &fakeRecipeRepository{
		recipes:   make(map[string]*entities.Recipe),
		favorites: make(map[string]bool),
		cart:      make(map[string]bool),
		authors:   make(map[string]*entities.User),
		catalog:   make(map[string]*entities.Ingredient),
	}
}

func (f *fakeRecipeRepository) preload(recipe *entities.Recipe) {
	recipe.Author = f.authors[recipe.AuthorID.String()]
	for _, line := range recipe.Ingredients {
		line.Ingredient = f.catalog[line.IngredientID.String()]
	}
}

func linkKey(userID, recipeID string) string {
	return userID + "/" + recipeID
}

func (f *fakeRecipeRepository) links(kind domain.RecipeLinkKind) map[string]bool {
	if kind == domain.LinkCart {
		return f.cart
	}
	return f.favorites
}

func (f *fakeRecipeRepository) CreateRecipeWithRelations(_ context.Context, recipe *entities.Recipe, tags []*entities.Tag, lines []*entities.IngredientInRecipe) error {
	for _, existing := range f.recipes {
		if existing.AuthorID == recipe.AuthorID && existing.Name == recipe.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	recipe.Tags = tags
	recipe.Ingredients = lines
	f.preload(recipe)
	f.recipes[recipe.ID.String()] = recipe
	return nil
}

func (f *fakeRecipeRepository) UpdateRecipeWithRelations(_ context.Context, recipe *entities.Recipe, tags []*entities.Tag, lines []*entities.IngredientInRecipe) error {
	recipe.Tags = tags
	recipe.Ingredients = lines
	f.preload(recipe)
	f.recipes[recipe.ID.String()] = recipe
	return nil
}

func (f *fakeRecipeRepository) GetRecipeByID(_ context.Context, id string) (*entities.Recipe, error) {
	recipe, ok := f.recipes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return recipe, nil
}

func (f *fakeRecipeRepository) GetRecipes(_ context.Context, _ domain.RecipeFilter, _ string, _, _ int) ([]*entities.Recipe, int64, error) {
	var recipes []*entities.Recipe
	for _, r := range f.recipes {
		recipes = append(recipes, r)
	}
	return recipes, int64(len(recipes)), nil
}

func (f *fakeRecipeRepository) GetRecipesByAuthor(_ context.Context, authorID string, limit int) ([]*entities.Recipe, error) {
	var recipes []*entities.Recipe
	for _, r := range f.recipes {
		if r.AuthorID.String() == authorID {
			recipes = append(recipes, r)
		}
	}
	if limit > 0 && len(recipes) > limit {
		recipes = recipes[:limit]
	}
	return recipes, nil
}

func (f *fakeRecipeRepository) CountRecipesByAuthor(_ context.Context, authorID string) (int64, error) {
	var count int64
	for _, r := range f.recipes {
		if r.AuthorID.String() == authorID {
			count++
		}
	}
	return count, nil
}

func (f *fakeRecipeRepository) DeleteRecipe(_ context.Context, id string) error {
	delete(f.recipes, id)
	return nil
}

func (f *fakeRecipeRepository) CreateRecipeLink(_ context.Context, kind domain.RecipeLinkKind, userID, recipeID uuid.UUID) error {
	key := linkKey(userID.String(), recipeID.String())
	if f.links(kind)[key] {
		return gorm.ErrDuplicatedKey
	}
	f.links(kind)[key] = true
	return nil
}

func (f *fakeRecipeRepository) DeleteRecipeLink(_ context.Context, kind domain.RecipeLinkKind, userID, recipeID string) (bool, error) {
	key := linkKey(userID, recipeID)
	if !f.links(kind)[key] {
		return false, nil
	}
	delete(f.links(kind), key)
	return true, nil
}

func (f *fakeRecipeRepository) HasRecipeLink(_ context.Context, kind domain.RecipeLinkKind, userID, recipeID string) (bool, error) {
	return f.links(kind)[linkKey(userID, recipeID)], nil
}

// GetShoppingList mirrors the SQL contract: group cart ingredients, sum the
// amounts, order by name.
func (f *fakeRecipeRepository) GetShoppingList(_ context.Context, userID string) ([]domain.ShoppingListItem, error) {
	sums := make(map[string]*domain.ShoppingListItem)
	for key := range f.cart {
		if !strings.HasPrefix(key, userID+"/") {
			continue
		}
		recipe, ok := f.recipes[strings.TrimPrefix(key, userID+"/")]
		if !ok {
			continue
		}
		for _, line := range recipe.Ingredients {
			name := line.Ingredient.Name
			if item, ok := sums[name]; ok {
				item.Amount += line.Amount
			} else {
				sums[name] = &domain.ShoppingListItem{
					Name:            name,
					MeasurementUnit: line.Ingredient.MeasurementUnit,
					Amount:          line.Amount,
				}
			}
		}
	}

	items := make([]domain.ShoppingListItem, 0, len(sums))
	for _, item := range sums {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

type fakeTagRepository struct {
	tags map[string]*entities.Tag
}

func (f *fakeTagRepository) GetTags(_ context.Context) ([]*entities.Tag, error) {
	var tags []*entities.Tag
	for _, t := range f.tags {
		tags = append(tags, t)
	}
	return tags, nil
}

func (f *fakeTagRepository) GetTagByID(_ context.Context, id string) (*entities.Tag, error) {
	t, ok := f.tags[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (f *fakeTagRepository) GetTagsByIDs(_ context.Context, ids []string) ([]*entities.Tag, error) {
	var tags []*entities.Tag
	for _, id := range ids {
		if t, ok := f.tags[id]; ok {
			tags = append(tags, t)
		}
	}
	return tags, nil
}

type fakeIngredientRepository struct {
	ingredients map[string]*entities.Ingredient
}

func (f *fakeIngredientRepository) CreateIngredient(_ context.Context, ing *entities.Ingredient) error {
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

func (f *fakeIngredientRepository) GetIngredients(_ context.Context, _ string) ([]*entities.Ingredient, error) {
	var ingredients []*entities.Ingredient
	for _, ing := range f.ingredients {
		ingredients = append(ingredients, ing)
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

type fakeUserRepository struct {
	users map[string]*entities.User
}

func (f *fakeUserRepository) CreateUser(_ context.Context, u *entities.User) error {
	f.users[u.ID.String()] = u
	return nil
}

func (f *fakeUserRepository) GetUserByID(_ context.Context, id string) (*entities.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeUserRepository) GetUserByEmail(_ context.Context, email string) (*entities.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepository) GetUserByUsername(_ context.Context, username string) (*entities.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepository) GetUsers(_ context.Context, _, _ int) ([]*entities.User, int64, error) {
	var users []*entities.User
	for _, u := range f.users {
		users = append(users, u)
	}
	return users, int64(len(users)), nil
}

func (f *fakeUserRepository) IsSubscribed(_ context.Context, _, _ string) (bool, error) {
	return false, nil
}

type fakeS3 struct{}

func (fakeS3) UploadFile(fileName string, _ []byte, ext string, dir string) (string, error) {
	return fmt.Sprintf("%s/%s.%s", dir, fileName, ext), nil
}
func (fakeS3) DeleteFile(string) error            { return nil }
func (fakeS3) GetPublicLinkKey(key string) string { return "https://cdn.test/" + key }
func (fakeS3) GetObjectKeyFromLink(link string) string {
	return link
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

const testImage = "data:image/png;base64,aGVsbG8="

type testEnv struct {
	service  RecipeService
	recipes  *fakeRecipeRepository
	tags     *fakeTagRepository
	items    *fakeIngredientRepository
	users    *fakeUserRepository
	author   *entities.User
	tagID    string
	saltID   string
	pepperID string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	recipes := newFakeRecipeRepository()
	tags := &fakeTagRepository{tags: make(map[string]*entities.Tag)}
	items := &fakeIngredientRepository{ingredients: make(map[string]*entities.Ingredient)}
	users := &fakeUserRepository{users: make(map[string]*entities.User)}

	author := &entities.User{ID: uuid.New(), Email: "chef@example.com", Username: "chef", Role: domain.RoleUser}
	users.users[author.ID.String()] = author

	breakfast := &entities.Tag{ID: uuid.New(), Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"}
	tags.tags[breakfast.ID.String()] = breakfast

	salt := &entities.Ingredient{ID: uuid.New(), Name: "Salt", MeasurementUnit: "g"}
	pepper := &entities.Ingredient{ID: uuid.New(), Name: "Pepper", MeasurementUnit: "g"}
	items.ingredients[salt.ID.String()] = salt
	items.ingredients[pepper.ID.String()] = pepper

	recipes.authors = users.users
	recipes.catalog = items.ingredients

	return &testEnv{
		service:  NewRecipeService(recipes, tags, items, users, fakeS3{}),
		recipes:  recipes,
		tags:     tags,
		items:    items,
		users:    users,
		author:   author,
		tagID:    breakfast.ID.String(),
		saltID:   salt.ID.String(),
		pepperID: pepper.ID.String(),
	}
}

func (e *testEnv) createRequest() domain.CreateRecipeRequest {
	return domain.CreateRecipeRequest{
		Name:        "Scrambled eggs",
		Image:       testImage,
		Text:        "Whisk and fry.",
		CookingTime: 10,
		Tags:        []string{e.tagID},
		Ingredients: []domain.IngredientLineRequest{{ID: e.saltID, Amount: 5}},
	}
}

func (e *testEnv) mustCreate(t *testing.T, req domain.CreateRecipeRequest) domain.RecipeResponse {
	t.Helper()
	res, err := e.service.CreateRecipe(context.Background(), req, e.author.ID.String())
	require.NoError(t, err)
	return res
}

// ---------------------------------------------------------------------------
// Composition engine
// ---------------------------------------------------------------------------

func TestCreateRecipe_EmptyTags(t *testing.T) {
	env := newTestEnv(t)
	req := env.createRequest()
	req.Tags = nil

	_, err := env.service.CreateRecipe(context.Background(), req, env.author.ID.String())
	require.ErrorIs(t, err, domain.ErrNoTags)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreateRecipe_EmptyIngredients(t *testing.T) {
	env := newTestEnv(t)
	req := env.createRequest()
	req.Ingredients = nil

	_, err := env.service.CreateRecipe(context.Background(), req, env.author.ID.String())
	require.ErrorIs(t, err, domain.ErrNoIngredients)
}

func TestCreateRecipe_DuplicateIngredients(t *testing.T) {
	env := newTestEnv(t)
	req := env.createRequest()
	req.Ingredients = []domain.IngredientLineRequest{
		{ID: env.saltID, Amount: 5},
		{ID: env.saltID, Amount: 7},
	}

	_, err := env.service.CreateRecipe(context.Background(), req, env.author.ID.String())
	require.ErrorIs(t, err, domain.ErrDuplicateIngredients)
}

func TestCreateRecipe_UnknownIngredient(t *testing.T) {
	env := newTestEnv(t)
	req := env.createRequest()
	req.Ingredients = []domain.IngredientLineRequest{{ID: uuid.NewString(), Amount: 5}}

	_, err := env.service.CreateRecipe(context.Background(), req, env.author.ID.String())
	require.ErrorIs(t, err, domain.ErrIngredientNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateRecipe_NonPositiveCookingTime(t *testing.T) {
	env := newTestEnv(t)
	req := env.createRequest()
	req.CookingTime = 0

	_, err := env.service.CreateRecipe(context.Background(), req, env.author.ID.String())
	require.ErrorIs(t, err, domain.ErrInvalidCookingTime)
}

func TestCreateRecipe_NonPositiveAmount(t *testing.T) {
	env := newTestEnv(t)
	req := env.createRequest()
	req.Ingredients = []domain.IngredientLineRequest{{ID: env.saltID, Amount: 0}}

	_, err := env.service.CreateRecipe(context.Background(), req, env.author.ID.String())
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestCreateRecipe_Success(t *testing.T) {
	env := newTestEnv(t)

	res := env.mustCreate(t, env.createRequest())

	assert.Equal(t, "Scrambled eggs", res.Name)
	assert.Equal(t, 10, res.CookingTime)
	require.Len(t, res.Tags, 1)
	assert.Equal(t, "breakfast", res.Tags[0].Slug)
	require.Len(t, res.Ingredients, 1)
	assert.Equal(t, "Salt", res.Ingredients[0].Name)
	assert.Equal(t, 5, res.Ingredients[0].Amount)
	assert.Equal(t, env.author.Username, res.Author.Username)
	assert.NotEmpty(t, res.Image)
}

func TestCreateRecipe_DuplicateNamePerAuthor(t *testing.T) {
	env := newTestEnv(t)
	env.mustCreate(t, env.createRequest())

	_, err := env.service.CreateRecipe(context.Background(), env.createRequest(), env.author.ID.String())
	require.ErrorIs(t, err, domain.ErrRecipeNameTaken)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCreateRecipe_BadImagePayload(t *testing.T) {
	env := newTestEnv(t)
	req := env.createRequest()
	req.Image = "not-an-image"

	_, err := env.service.CreateRecipe(context.Background(), req, env.author.ID.String())
	require.ErrorIs(t, err, domain.ErrInvalidImagePayload)
}

func TestUpdateRecipe_Forbidden(t *testing.T) {
	env := newTestEnv(t)
	created := env.mustCreate(t, env.createRequest())

	stranger := uuid.NewString()
	req := domain.UpdateRecipeRequest{
		Name:        "Stolen recipe",
		Text:        "mine now",
		CookingTime: 5,
		Tags:        []string{env.tagID},
		Ingredients: []domain.IngredientLineRequest{{ID: env.saltID, Amount: 1}},
	}

	_, err := env.service.UpdateRecipe(context.Background(), created.ID, req, stranger, domain.RoleUser)
	require.ErrorIs(t, err, domain.ErrNotRecipeAuthor)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// An admin may edit any recipe.
	_, err = env.service.UpdateRecipe(context.Background(), created.ID, req, stranger, domain.RoleAdmin)
	require.NoError(t, err)
}

func TestUpdateRecipe_ReplacesIngredientLines(t *testing.T) {
	env := newTestEnv(t)
	created := env.mustCreate(t, env.createRequest())

	req := domain.UpdateRecipeRequest{
		Name:        "Scrambled eggs",
		Text:        "Whisk and fry.",
		CookingTime: 10,
		Tags:        []string{env.tagID},
		Ingredients: []domain.IngredientLineRequest{{ID: env.pepperID, Amount: 3}},
	}

	res, err := env.service.UpdateRecipe(context.Background(), created.ID, req, env.author.ID.String(), domain.RoleUser)
	require.NoError(t, err)

	// Full replace: the old salt line is gone, only pepper remains.
	require.Len(t, res.Ingredients, 1)
	assert.Equal(t, "Pepper", res.Ingredients[0].Name)
	assert.Equal(t, 3, res.Ingredients[0].Amount)
}

func TestUpdateRecipe_NotFound(t *testing.T) {
	env := newTestEnv(t)

	req := domain.UpdateRecipeRequest{
		Name:        "Ghost",
		Text:        "missing",
		CookingTime: 1,
		Tags:        []string{env.tagID},
		Ingredients: []domain.IngredientLineRequest{{ID: env.saltID, Amount: 1}},
	}

	_, err := env.service.UpdateRecipe(context.Background(), uuid.NewString(), req, env.author.ID.String(), domain.RoleUser)
	require.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestDeleteRecipe_Forbidden(t *testing.T) {
	env := newTestEnv(t)
	created := env.mustCreate(t, env.createRequest())

	err := env.service.DeleteRecipe(context.Background(), created.ID, uuid.NewString(), domain.RoleUser)
	require.ErrorIs(t, err, domain.ErrNotRecipeAuthor)

	err = env.service.DeleteRecipe(context.Background(), created.ID, env.author.ID.String(), domain.RoleUser)
	require.NoError(t, err)

	_, err = env.service.GetRecipe(context.Background(), created.ID, "")
	require.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestGetRecipe_AnonymousViewerFlags(t *testing.T) {
	env := newTestEnv(t)
	created := env.mustCreate(t, env.createRequest())

	res, err := env.service.GetRecipe(context.Background(), created.ID, "")
	require.NoError(t, err)
	assert.False(t, res.IsFavorited)
	assert.False(t, res.IsInShoppingCart)
}

// ---------------------------------------------------------------------------
// Favorites/cart ledger
// ---------------------------------------------------------------------------

func TestAddRecipeLink_UnknownRecipe(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.AddRecipeLink(context.Background(), domain.LinkFavorite, env.author.ID.String(), uuid.NewString())
	require.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestAddRecipeLink_FavoriteTwice(t *testing.T) {
	env := newTestEnv(t)
	created := env.mustCreate(t, env.createRequest())
	userID := env.author.ID.String()

	res, err := env.service.AddRecipeLink(context.Background(), domain.LinkFavorite, userID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, res.ID)
	assert.Equal(t, created.Name, res.Name)
	assert.Equal(t, created.CookingTime, res.CookingTime)

	_, err = env.service.AddRecipeLink(context.Background(), domain.LinkFavorite, userID, created.ID)
	require.ErrorIs(t, err, domain.ErrAlreadyFavorited)
}

func TestAddRecipeLink_CartTwice(t *testing.T) {
	env := newTestEnv(t)
	created := env.mustCreate(t, env.createRequest())
	userID := env.author.ID.String()

	_, err := env.service.AddRecipeLink(context.Background(), domain.LinkCart, userID, created.ID)
	require.NoError(t, err)

	_, err = env.service.AddRecipeLink(context.Background(), domain.LinkCart, userID, created.ID)
	require.ErrorIs(t, err, domain.ErrAlreadyInCart)
}

func TestRemoveRecipeLink_NotFound(t *testing.T) {
	env := newTestEnv(t)
	created := env.mustCreate(t, env.createRequest())
	userID := env.author.ID.String()

	_, err := env.service.AddRecipeLink(context.Background(), domain.LinkFavorite, userID, created.ID)
	require.NoError(t, err)

	require.NoError(t, env.service.RemoveRecipeLink(context.Background(), domain.LinkFavorite, userID, created.ID))

	err = env.service.RemoveRecipeLink(context.Background(), domain.LinkFavorite, userID, created.ID)
	require.ErrorIs(t, err, domain.ErrFavoriteNotFound)

	err = env.service.RemoveRecipeLink(context.Background(), domain.LinkCart, userID, created.ID)
	require.ErrorIs(t, err, domain.ErrCartEntryNotFound)
}

func TestLedgerKindsAreIndependent(t *testing.T) {
	env := newTestEnv(t)
	created := env.mustCreate(t, env.createRequest())
	userID := env.author.ID.String()

	_, err := env.service.AddRecipeLink(context.Background(), domain.LinkFavorite, userID, created.ID)
	require.NoError(t, err)

	// Favoriting does not put the recipe in the cart.
	res, err := env.service.GetRecipe(context.Background(), created.ID, userID)
	require.NoError(t, err)
	assert.True(t, res.IsFavorited)
	assert.False(t, res.IsInShoppingCart)
}

// ---------------------------------------------------------------------------
// Shopping list aggregation
// ---------------------------------------------------------------------------

func TestBuildShoppingList_SumsAcrossRecipes(t *testing.T) {
	env := newTestEnv(t)
	userID := env.author.ID.String()

	first := env.mustCreate(t, env.createRequest())

	second := env.createRequest()
	second.Name = "Salted pepper"
	second.Ingredients = []domain.IngredientLineRequest{
		{ID: env.saltID, Amount: 10},
		{ID: env.pepperID, Amount: 2},
	}
	secondRes := env.mustCreate(t, second)

	for _, id := range []string{first.ID, secondRes.ID} {
		_, err := env.service.AddRecipeLink(context.Background(), domain.LinkCart, userID, id)
		require.NoError(t, err)
	}

	text, err := env.service.BuildShoppingList(context.Background(), userID)
	require.NoError(t, err)

	expected := domain.ShoppingListHeader +
		"Pepper, 2 g\n" +
		"Salt, 15 g\n"
	assert.Equal(t, expected, text)

	// No side effects: a second call is byte-identical.
	again, err := env.service.BuildShoppingList(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, text, again)
}

func TestBuildShoppingList_EmptyCart(t *testing.T) {
	env := newTestEnv(t)

	text, err := env.service.BuildShoppingList(context.Background(), env.author.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.ShoppingListHeader, text)
}

func TestRenderShoppingList(t *testing.T) {
	items := []domain.ShoppingListItem{
		{Name: "Мука", MeasurementUnit: "г", Amount: 500},
		{Name: "Сахар", MeasurementUnit: "г", Amount: 120},
	}

	text := RenderShoppingList(items)
	assert.Equal(t, domain.ShoppingListHeader+"Мука, 500 г\nСахар, 120 г\n", text)
}
