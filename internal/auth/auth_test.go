package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(tokens TokenTable, allowHeader bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(tokens, allowHeader))
	r.GET("/whoami", func(c *gin.Context) {
		owner, ok := ContextResolver{}.Owner(c.Request.Context())
		if !ok {
			c.JSON(http.StatusOK, gin.H{"owner": ""})
			return
		}
		c.JSON(http.StatusOK, gin.H{"owner": owner})
	})
	return r
}

func TestOwnerFromContext(t *testing.T) {
	_, ok := OwnerFromContext(context.Background())
	require.False(t, ok)

	_, ok = OwnerFromContext(WithOwner(context.Background(), ""))
	require.False(t, ok, "empty owner is not an owner")

	owner, ok := OwnerFromContext(WithOwner(context.Background(), "u1"))
	require.True(t, ok)
	require.Equal(t, "u1", owner)
}

func TestMiddleware(t *testing.T) {
	tokens := TokenTable{"secret": "u1"}

	tests := []struct {
		name        string
		allowHeader bool
		headers     map[string]string
		wantStatus  int
		wantBody    string
	}{
		{"valid bearer", false, map[string]string{"Authorization": "Bearer secret"}, http.StatusOK, `{"owner":"u1"}`},
		{"unknown token", false, map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized, ""},
		{"malformed header", false, map[string]string{"Authorization": "Basic abc"}, http.StatusUnauthorized, ""},
		{"no credentials", false, nil, http.StatusOK, `{"owner":""}`},
		{"owner header disabled", false, map[string]string{OwnerHeader: "u9"}, http.StatusOK, `{"owner":""}`},
		{"owner header enabled", true, map[string]string{OwnerHeader: "u9"}, http.StatusOK, `{"owner":"u9"}`},
		{"bearer wins over header", true, map[string]string{"Authorization": "Bearer secret", OwnerHeader: "u9"}, http.StatusOK, `{"owner":"u1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newAuthRouter(tokens, tt.allowHeader)
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				require.JSONEq(t, tt.wantBody, w.Body.String())
			}
		})
	}
}
