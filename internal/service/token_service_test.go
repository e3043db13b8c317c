package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/hmtran/clothes-shop/internal/models"
)

var (
	testJWTSecret     = []byte("access-secret")
	testRefreshSecret = []byte("refresh-secret")
)

func TestSignAndValidateRefresh(t *testing.T) {
	db := newTestDB(t)

	raw, err := SignRefreshToken(7, "user", testRefreshSecret)
	require.NoError(t, err)
	require.NoError(t, SaveRefreshToken(db, raw, 7, "user", "127.0.0.1", "test-agent"))

	claims, err := ValidateRefresh(raw, testRefreshSecret, db)
	require.NoError(t, err)
	require.EqualValues(t, 7, claims["sub"].(float64))
	require.Equal(t, "user", claims["role"])
}

func TestValidateRefreshRejectsAccessToken(t *testing.T) {
	db := newTestDB(t)

	raw, err := SignAccessToken(7, "user", testRefreshSecret)
	require.NoError(t, err)

	_, err = ValidateRefresh(raw, testRefreshSecret, db)
	require.Error(t, err)
}

func TestValidateRefreshRejectsUnknownToken(t *testing.T) {
	db := newTestDB(t)

	raw, err := SignRefreshToken(7, "user", testRefreshSecret)
	require.NoError(t, err)

	// Signed but never stored.
	_, err = ValidateRefresh(raw, testRefreshSecret, db)
	require.Error(t, err)
}

func TestValidateRefreshRejectsExpiredRow(t *testing.T) {
	db := newTestDB(t)

	raw, err := SignRefreshToken(7, "user", testRefreshSecret)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.RefreshToken{
		Token:     raw,
		UserID:    7,
		Role:      "user",
		ExpiresAt: time.Now().Add(-time.Hour).Unix(),
	}).Error)

	_, err = ValidateRefresh(raw, testRefreshSecret, db)
	require.Error(t, err)
}

func TestRotateTokenRevokesOldToken(t *testing.T) {
	db := newTestDB(t)
	ts := &TokenService{DB: db, JWTSecret: testJWTSecret, RefreshSecret: testRefreshSecret}

	raw, err := SignRefreshToken(7, "admin", testRefreshSecret)
	require.NoError(t, err)
	require.NoError(t, SaveRefreshToken(db, raw, 7, "admin", "127.0.0.1", "test-agent"))

	newAccess, newRefresh, err := ts.RotateToken(raw, "10.0.0.1", "other-agent")
	require.NoError(t, err)
	require.NotEmpty(t, newAccess)
	require.NotEmpty(t, newRefresh)
	require.NotEqual(t, raw, newRefresh)

	// The old token is dead.
	_, _, err = ts.RotateToken(raw, "10.0.0.1", "other-agent")
	require.Error(t, err)

	// The new one carries the same identity and works.
	claims, err := ValidateRefresh(newRefresh, testRefreshSecret, db)
	require.NoError(t, err)
	require.EqualValues(t, 7, claims["sub"].(float64))
	require.Equal(t, "admin", claims["role"])

	token, err := jwt.Parse(newAccess, func(t *jwt.Token) (interface{}, error) { return testJWTSecret, nil })
	require.NoError(t, err)
	require.True(t, token.Valid)
}

func TestRevokeRefresh(t *testing.T) {
	db := newTestDB(t)
	ts := &TokenService{DB: db, JWTSecret: testJWTSecret, RefreshSecret: testRefreshSecret}

	raw, err := SignRefreshToken(3, "user", testRefreshSecret)
	require.NoError(t, err)
	require.NoError(t, SaveRefreshToken(db, raw, 3, "user", "", ""))

	require.NoError(t, ts.RevokeRefresh(raw))

	_, err = ValidateRefresh(raw, testRefreshSecret, db)
	require.Error(t, err)
}
