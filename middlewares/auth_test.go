package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nick8/models"
	"nick8/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(secret), func(c *gin.Context) {
		who, ok := CurrentIdentity(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"email": who.Email})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	router := newAuthRouter("secret")
	valid, err := utils.GenerateJWTToken("secret", models.Identity{ID: "1", Email: "a@b.c"}, time.Hour)
	require.NoError(t, err)
	expired, err := utils.GenerateJWTToken("secret", models.Identity{ID: "1", Email: "a@b.c"}, -time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", valid, http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized},
		{"valid token", "Bearer " + valid, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
			if tc.want == http.StatusOK {
				assert.JSONEq(t, `{"email":"a@b.c"}`, w.Body.String())
			}
		})
	}
}
