package httpserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// The core never verifies identity beyond the signature: the auth
// collaborator issues tokens carrying the principal in "sub" and its role
// in "role".

func tokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie("accessToken"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return ""
}

func principalFromToken(tokenString string, secret []byte) (uint, string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return 0, "", fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return 0, "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", fmt.Errorf("invalid token claims")
	}
	subRaw, ok := claims["sub"].(float64)
	if !ok {
		return 0, "", fmt.Errorf("invalid subject claim")
	}
	role, _ := claims["role"].(string)

	return uint(subRaw), role, nil
}

// RequireUser authenticates the request and stores userID and role in the
// echo context.
func RequireUser(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString := tokenFromRequest(c)
			if tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
			}

			userID, role, err := principalFromToken(tokenString, secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			c.Set("userID", userID)
			c.Set("role", role)
			return next(c)
		}
	}
}

// RequireAdmin builds on RequireUser and additionally gates on the admin
// role.
func RequireAdmin(secret []byte) echo.MiddlewareFunc {
	requireUser := RequireUser(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return requireUser(func(c echo.Context) error {
			if role, _ := c.Get("role").(string); role != "admin" {
				return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
			}
			return next(c)
		})
	}
}

func currentUser(c echo.Context) (uint, error) {
	userID, ok := c.Get("userID").(uint)
	if !ok || userID == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "missing principal")
	}
	return userID, nil
}

func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == "admin"
}
