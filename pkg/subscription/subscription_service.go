package subscription

import (
	"context"
	"errors"

	"Foodgram-Backend/domain"
	"Foodgram-Backend/pkg/recipe"
	"Foodgram-Backend/pkg/user"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	SubscriptionService interface {
		Subscribe(ctx context.Context, userID, authorID string) (domain.SubscriptionResponse, error)
		Unsubscribe(ctx context.Context, userID, authorID string) error
		GetSubscriptions(ctx context.Context, userID string, page, limit, recipesLimit int) ([]domain.SubscriptionResponse, int64, error)
	}

	subscriptionService struct {
		subscriptionRepository SubscriptionRepository
		userRepository         user.UserRepository
		recipeRepository       recipe.RecipeRepository
	}
)

func NewSubscriptionService(
	subscriptionRepository SubscriptionRepository,
	userRepository user.UserRepository,
	recipeRepository recipe.RecipeRepository,
) SubscriptionService {
	return &subscriptionService{
		subscriptionRepository: subscriptionRepository,
		userRepository:         userRepository,
		recipeRepository:       recipeRepository,
	}
}

func (s *subscriptionService) Subscribe(ctx context.Context, userID, authorID string) (domain.SubscriptionResponse, error) {
	// Self-follow is rejected before any lookup, regardless of whether the
	// user exists.
	if userID == authorID {
		return domain.SubscriptionResponse{}, domain.ErrSelfSubscription
	}

	author, err := s.userRepository.GetUserByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.SubscriptionResponse{}, domain.ErrUserNotFound
		}
		return domain.SubscriptionResponse{}, err
	}

	exists, err := s.subscriptionRepository.HasSubscription(ctx, userID, authorID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}
	if exists {
		return domain.SubscriptionResponse{}, domain.ErrAlreadySubscribed
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.SubscriptionResponse{}, domain.ErrParseUUID
	}

	if err := s.subscriptionRepository.CreateSubscription(ctx, userUUID, author.ID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.SubscriptionResponse{}, domain.ErrAlreadySubscribed
		}
		return domain.SubscriptionResponse{}, err
	}

	return s.buildResponse(ctx, userID, authorID, 0)
}

func (s *subscriptionService) Unsubscribe(ctx context.Context, userID, authorID string) error {
	if _, err := s.userRepository.GetUserByID(ctx, authorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	deleted, err := s.subscriptionRepository.DeleteSubscription(ctx, userID, authorID)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrSubscriptionNotFound
	}
	return nil
}

func (s *subscriptionService) GetSubscriptions(ctx context.Context, userID string, page, limit, recipesLimit int) ([]domain.SubscriptionResponse, int64, error) {
	subscriptions, count, err := s.subscriptionRepository.GetSubscriptions(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]domain.SubscriptionResponse, 0, len(subscriptions))
	for _, sub := range subscriptions {
		res, err := s.buildResponse(ctx, userID, sub.AuthorID.String(), recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		responses = append(responses, res)
	}
	return responses, count, nil
}

func (s *subscriptionService) buildResponse(ctx context.Context, userID, authorID string, recipesLimit int) (domain.SubscriptionResponse, error) {
	author, err := s.userRepository.GetUserByID(ctx, authorID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}

	// This re-checks the pair being rendered, so it reads true for every row
	// of the list. Kept as a real lookup so the field stays honest if the
	// response shape is ever reused for arbitrary author profiles.
	subscribed, err := s.subscriptionRepository.HasSubscription(ctx, userID, authorID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}

	recipesCount, err := s.recipeRepository.CountRecipesByAuthor(ctx, authorID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}

	recipes, err := s.recipeRepository.GetRecipesByAuthor(ctx, authorID, recipesLimit)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}

	previews := make([]domain.SimpleRecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		previews = append(previews, recipe.ToSimpleRecipeResponse(r))
	}

	return domain.SubscriptionResponse{
		Email:        author.Email,
		ID:           author.ID.String(),
		Username:     author.Username,
		FirstName:    author.FirstName,
		LastName:     author.LastName,
		IsSubscribed: subscribed,
		Recipes:      previews,
		RecipesCount: recipesCount,
	}, nil
}
