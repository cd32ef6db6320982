package tokens

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := []byte("supersecret")
	token, err := GenerateAccessToken(secret, 60, "REGTEST")
	assert.NoError(t, err)

	network, err := ParseToken(secret, token)
	assert.NoError(t, err)
	assert.Equal(t, "REGTEST", network)

	_, err = ParseToken([]byte("other"), token)
	assert.Error(t, err)

	expired, err := GenerateAccessToken(secret, -60, "REGTEST")
	assert.NoError(t, err)
	_, err = ParseToken(secret, expired)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	secret := []byte("supersecret")
	e := echo.New()
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}, Middleware(secret, nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, _ := GenerateAccessToken(secret, 60, "REGTEST")
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	e.GET("/open", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}, Middleware(secret, func(c echo.Context) bool { return true }))
	req = httptest.NewRequest(http.MethodGet, "/open", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
