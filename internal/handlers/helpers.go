package handlers

import (
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// GetID resolves the calling user. The token middleware puts the claims in
// the context; the cookie parse below keeps handlers usable without it.
func GetID(c echo.Context, jwtSecret []byte) (uint, error) {
	if id, ok := c.Get("userID").(uint); ok {
		return id, nil
	}

	claims, err := parseAccessCookie(c, jwtSecret)
	if err != nil {
		return 0, err
	}
	subRaw, ok := claims["sub"].(float64)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid subject claim")
	}
	return uint(subRaw), nil
}

// GetRole returns the caller's role, or "" for an unauthenticated request.
func GetRole(c echo.Context, jwtSecret []byte) string {
	if role, ok := c.Get("role").(string); ok {
		return role
	}
	claims, err := parseAccessCookie(c, jwtSecret)
	if err != nil {
		return ""
	}
	role, _ := claims["role"].(string)
	return role
}

// IsSelfOrAdmin reports whether the caller is the given user or an admin.
func IsSelfOrAdmin(c echo.Context, jwtSecret []byte, userID uint) bool {
	if GetRole(c, jwtSecret) == "admin" {
		return true
	}
	id, err := GetID(c, jwtSecret)
	return err == nil && id == userID
}

func parseAccessCookie(c echo.Context, jwtSecret []byte) (jwt.MapClaims, error) {
	cookie, err := c.Cookie("accessToken")
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing auth cookie")
	}
	tokenString := cookie.Value
	if tokenString == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "empty token")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
	}
	return claims, nil
}
