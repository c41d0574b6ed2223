package domain

import (
	"fmt"
)

var (
	MessageSuccessRegister = "user registered successfully"
	MessageSuccessLogin    = "login success"
	MessageSuccessGetMe    = "success get profile"
	MessageSuccessGetUser  = "success get user"
	MessageSuccessGetUsers = "success get users"
	MessageFailedRegister  = "failed to register user"
	MessageFailedLogin     = "failed to login"
	MessageFailedGetMe     = "failed to get profile"
	MessageFailedGetUser   = "failed to get user"
	MessageFailedGetUsers  = "failed to get users"

	ErrUserNotFound       = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrEmailAlreadyExists = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrUsernameTaken      = fmt.Errorf("%w: username already taken", ErrConflict)
	ErrCredentialsInvalid = fmt.Errorf("%w: wrong email or password", ErrValidation)
	ErrReservedUsername   = fmt.Errorf("%w: username is reserved", ErrValidation)
)

type (
	UserRegisterRequest struct {
		Email     string `json:"email" validate:"required,email"`
		Username  string `json:"username" validate:"required,max=150"`
		FirstName string `json:"first_name" validate:"omitempty,max=150"`
		LastName  string `json:"last_name" validate:"omitempty,max=150"`
		Password  string `json:"password" validate:"required,min=8"`
	}

	UserLoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	UserLoginResponse struct {
		Token string `json:"auth_token"`
	}

	UserResponse struct {
		ID           string `json:"id"`
		Email        string `json:"email"`
		Username     string `json:"username"`
		FirstName    string `json:"first_name"`
		LastName     string `json:"last_name"`
		IsSubscribed bool   `json:"is_subscribed"`
	}
)
