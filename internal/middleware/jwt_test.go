package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking-api/internal/model"
	"github.com/iliyamo/cinema-booking-api/internal/utils"
)

const testSecret = "test-secret"

func runProtected(t *testing.T, mws []echo.MiddlewareFunc, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h := func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"user_id": c.Get("user_id"), "role": c.Get("role")})
	}
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec
}

func TestJWTAuthMissingToken(t *testing.T) {
	rec := runProtected(t, []echo.MiddlewareFunc{JWTAuth(testSecret)}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthInvalidToken(t *testing.T) {
	rec := runProtected(t, []echo.MiddlewareFunc{JWTAuth(testSecret)}, "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthWrongSecret(t *testing.T) {
	tok, err := utils.NewAccessToken("other-secret", 1, model.RoleCustomer, 5)
	require.NoError(t, err)
	rec := runProtected(t, []echo.MiddlewareFunc{JWTAuth(testSecret)}, "Bearer "+tok.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthValidTokenSetsClaims(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, model.RoleCustomer, 5)
	require.NoError(t, err)
	rec := runProtected(t, []echo.MiddlewareFunc{JWTAuth(testSecret)}, "Bearer "+tok.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"CUSTOMER"`)
	assert.Contains(t, rec.Body.String(), `"user_id":42`)
}

func TestRequireRole(t *testing.T) {
	customer, err := utils.NewAccessToken(testSecret, 1, model.RoleCustomer, 5)
	require.NoError(t, err)
	admin, err := utils.NewAccessToken(testSecret, 2, model.RoleAdmin, 5)
	require.NoError(t, err)

	adminOnly := []echo.MiddlewareFunc{JWTAuth(testSecret), RequireRole(model.RoleAdmin)}

	rec := runProtected(t, adminOnly, "Bearer "+customer.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = runProtected(t, adminOnly, "Bearer "+admin.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
}
