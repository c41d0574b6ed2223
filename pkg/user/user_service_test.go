package user

import (
	"context"
	"testing"

	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"
	"Foodgram-Backend/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeUserRepository struct {
	users map[string]*entities.User
	subs  map[string]bool // "user/author"
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{
		users: make(map[string]*entities.User),
		subs:  make(map[string]bool),
	}
}

func (f *fakeUserRepository) CreateUser(_ context.Context, u *entities.User) error {
	for _, existing := range f.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	// The database fills the id through its column default.
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
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

func (f *fakeUserRepository) IsSubscribed(_ context.Context, userID, authorID string) (bool, error) {
	return f.subs[userID+"/"+authorID], nil
}

func newUserService() (UserService, *fakeUserRepository) {
	repo := newFakeUserRepository()
	return NewUserService(repo, jwt.NewJWTService()), repo
}

func registerRequest() domain.UserRegisterRequest {
	return domain.UserRegisterRequest{
		Email:     "chef@example.com",
		Username:  "chef",
		FirstName: "Ann",
		LastName:  "Cook",
		Password:  "secret-password",
	}
}

func TestRegister(t *testing.T) {
	service, repo := newUserService()

	res, err := service.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	assert.Equal(t, "chef@example.com", res.Email)
	assert.Equal(t, "chef", res.Username)
	assert.NotEmpty(t, res.ID)

	// The stored password is hashed, never the raw value.
	stored := repo.users[res.ID]
	require.NotNil(t, stored)
	assert.NotEqual(t, "secret-password", stored.Password)
	assert.Equal(t, domain.RoleUser, stored.Role)
}

func TestRegister_ReservedUsername(t *testing.T) {
	service, _ := newUserService()

	req := registerRequest()
	req.Username = "me"

	_, err := service.Register(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrReservedUsername)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	service, _ := newUserService()

	_, err := service.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	req := registerRequest()
	req.Username = "otherchef"
	_, err = service.Register(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	service, _ := newUserService()

	_, err := service.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	req := registerRequest()
	req.Email = "other@example.com"
	_, err = service.Register(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrUsernameTaken)
}

func TestLogin(t *testing.T) {
	service, _ := newUserService()

	_, err := service.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	res, err := service.Login(context.Background(), domain.UserLoginRequest{
		Email:    "chef@example.com",
		Password: "secret-password",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
}

func TestLogin_WrongPassword(t *testing.T) {
	service, _ := newUserService()

	_, err := service.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	_, err = service.Login(context.Background(), domain.UserLoginRequest{
		Email:    "chef@example.com",
		Password: "wrong",
	})
	require.ErrorIs(t, err, domain.ErrCredentialsInvalid)
}

func TestLogin_UnknownEmail(t *testing.T) {
	service, _ := newUserService()

	_, err := service.Login(context.Background(), domain.UserLoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	require.ErrorIs(t, err, domain.ErrCredentialsInvalid)
}

func TestGetUser_ViewerRelativeSubscription(t *testing.T) {
	service, repo := newUserService()

	registered, err := service.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	viewerID := uuid.NewString()
	repo.subs[viewerID+"/"+registered.ID] = true

	res, err := service.GetUser(context.Background(), registered.ID, viewerID)
	require.NoError(t, err)
	assert.True(t, res.IsSubscribed)

	// Anonymous viewers never see a subscription flag.
	res, err = service.GetUser(context.Background(), registered.ID, "")
	require.NoError(t, err)
	assert.False(t, res.IsSubscribed)
}

func TestGetUser_NotFound(t *testing.T) {
	service, _ := newUserService()

	_, err := service.GetUser(context.Background(), uuid.NewString(), "")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
