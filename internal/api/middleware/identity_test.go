package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/ec-cart/internal/auth"
	"github.com/example/ec-cart/internal/domain/cart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-test-secret-0123456789abcd"

// resolveOwner runs a request through the middleware and returns the owner
// the downstream handler saw, if it was reached at all.
func resolveOwner(t *testing.T, req *http.Request) (cart.Owner, bool, *httptest.ResponseRecorder) {
	t.Helper()

	var owner cart.Owner
	reached := false
	handler := ResolveOwner(auth.NewJWTService(testSecret, 15*time.Minute))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var ok bool
			owner, ok = GetOwner(r.Context())
			require.True(t, ok)
			reached = true
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return owner, reached, rec
}

func TestResolveOwner_BearerTokenYieldsUser(t *testing.T) {
	jwtService := auth.NewJWTService(testSecret, 15*time.Minute)
	token, _, err := jwtService.GenerateAccessToken("u-7", "u7@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	owner, reached, _ := resolveOwner(t, req)

	require.True(t, reached)
	assert.Equal(t, cart.UserOwner("u-7"), owner)
}

func TestResolveOwner_AccessTokenCookieYieldsUser(t *testing.T) {
	jwtService := auth.NewJWTService(testSecret, 15*time.Minute)
	token, _, err := jwtService.GenerateAccessToken("u-7", "u7@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})

	owner, reached, _ := resolveOwner(t, req)

	require.True(t, reached)
	assert.Equal(t, cart.UserOwner("u-7"), owner)
}

func TestResolveOwner_InvalidTokenIsRejectedNotDowngraded(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	// Session cookie present, but the bad token still wins.
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess-1"})

	_, reached, rec := resolveOwner(t, req)

	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestResolveOwner_ExistingSessionCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess-1"})

	owner, reached, rec := resolveOwner(t, req)

	require.True(t, reached)
	assert.Equal(t, cart.SessionOwner("sess-1"), owner)
	assert.Empty(t, rec.Result().Cookies())
}

func TestResolveOwner_IssuesSessionCookieWhenAbsent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)

	owner, reached, rec := resolveOwner(t, req)

	require.True(t, reached)
	assert.Equal(t, cart.OwnerSession, owner.Kind)
	assert.NotEmpty(t, owner.ID)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.Equal(t, owner.ID, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestGetOwner_AbsentFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)

	_, ok := GetOwner(req.Context())

	assert.False(t, ok)
}
