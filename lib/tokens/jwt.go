package tokens

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type jwtCustomClaims struct {
	Network string `json:"network"`
	jwt.StandardClaims
}

// GenerateAccessToken : Generate Access Token for an app login session
func GenerateAccessToken(secret []byte, expiry int, network string) (string, error) {
	claims := &jwtCustomClaims{
		Network: network,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(time.Second * time.Duration(expiry)).Unix(),
			IssuedAt:  time.Now().Unix(),
			Subject:   "wallet",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseToken validates a raw token, used where the token arrives as a query
// parameter (websocket upgrades).
func ParseToken(secret []byte, raw string) (string, error) {
	claims := &jwtCustomClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("Unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	return claims.Network, nil
}

// Middleware protects the secured API group. When skip returns true (app
// login not required) requests pass through untouched.
func Middleware(secret []byte, skip func(c echo.Context) bool) echo.MiddlewareFunc {
	config := middleware.DefaultJWTConfig
	config.Claims = &jwtCustomClaims{}
	config.SigningKey = secret
	if skip != nil {
		config.Skipper = skip
	}
	config.ErrorHandlerWithContext = func(err error, c echo.Context) error {
		c.Logger().Error(err)
		return echo.NewHTTPError(http.StatusUnauthorized, echo.Map{
			"error":   true,
			"code":    1,
			"message": "bad auth",
		})
	}
	return middleware.JWTWithConfig(config)
}
