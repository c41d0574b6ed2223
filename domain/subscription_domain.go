package domain

import "fmt"

var (
	MessageSuccessSubscribe        = "subscribed successfully"
	MessageSuccessUnsubscribe      = "unsubscribed successfully"
	MessageSuccessGetSubscriptions = "success get subscriptions"

	MessageFailedSubscribe        = "failed to subscribe"
	MessageFailedUnsubscribe      = "failed to unsubscribe"
	MessageFailedGetSubscriptions = "failed to get subscriptions"

	ErrSelfSubscription     = fmt.Errorf("%w: subscribing to yourself is not allowed", ErrValidation)
	ErrAlreadySubscribed    = fmt.Errorf("%w: already subscribed to this author", ErrConflict)
	ErrSubscriptionNotFound = fmt.Errorf("%w: subscription not found", ErrNotFound)
)

type SubscriptionResponse struct {
	Email        string                 `json:"email"`
	ID           string                 `json:"id"`
	Username     string                 `json:"username"`
	FirstName    string                 `json:"first_name"`
	LastName     string                 `json:"last_name"`
	IsSubscribed bool                   `json:"is_subscribed"`
	Recipes      []SimpleRecipeResponse `json:"recipes"`
	RecipesCount int64                  `json:"recipes_count"`
}
