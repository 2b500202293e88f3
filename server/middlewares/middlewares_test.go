package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func anonymousRequest(t *testing.T, target string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

// The identity headers are an internal contract written after token
// validation; values smuggled in by the client must never survive the guard.
func TestOptionalJWTStripsForgedIdentityHeaders(t *testing.T) {
	c, _ := anonymousRequest(t, "/api/users/someone")
	c.Request.Header.Set(HeaderSub, "forged-subject")
	c.Request.Header.Set(HeaderHintName, "Forged Name")
	c.Request.Header.Set(HeaderHintAvatar, "https://forged.example/a.png")

	OptionalJWT()(c)

	assert.Empty(t, c.Request.Header.Get(HeaderSub))
	assert.Empty(t, c.Request.Header.Get(HeaderHintName))
	assert.Empty(t, c.Request.Header.Get(HeaderHintAvatar))
	// Anonymous requests proceed, just without an identity.
	assert.False(t, c.IsAborted())
}

func TestJWTRejectsMissingToken(t *testing.T) {
	c, w := anonymousRequest(t, "/api/me")
	c.Request.Header.Set(HeaderSub, "forged-subject")

	JWT()(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, c.Request.Header.Get(HeaderSub))
}
