package jwt

import (
	"testing"
	"time"

	"Foodgram-Backend/domain"

	jwtlib "github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	service := NewJWTService()
	userID := uuid.NewString()

	token := service.GenerateTokenUser(userID, domain.RoleUser)
	require.NotEmpty(t, token)

	gotID, gotRole, err := service.GetUserIDByToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, gotID)
	assert.Equal(t, domain.RoleUser, gotRole)
}

func TestGetUserIDByToken_Garbage(t *testing.T) {
	service := NewJWTService()

	_, _, err := service.GetUserIDByToken("not.a.token")
	require.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestGetUserIDByToken_WrongKey(t *testing.T) {
	service := NewJWTService()

	claims := jwtUserClaim{
		UserID: uuid.NewString(),
		Role:   domain.RoleUser,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
			Issuer:    "FOODGRAM",
		},
	}
	forged, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("other-key"))
	require.NoError(t, err)

	_, _, err = service.GetUserIDByToken(forged)
	require.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestGetUserIDByToken_Expired(t *testing.T) {
	service := NewJWTService().(*jwtService)

	claims := jwtUserClaim{
		UserID: uuid.NewString(),
		Role:   domain.RoleUser,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(-time.Hour)),
			Issuer:    service.issuer,
		},
	}
	expired, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte(service.secretKey))
	require.NoError(t, err)

	_, _, err = service.GetUserIDByToken(expired)
	require.ErrorIs(t, err, domain.ErrTokenExpired)
}
