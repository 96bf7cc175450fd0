package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/models"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/testhelpers"
)

func newRouter(logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/me", AuthMiddleware(testhelpers.TestJWTSecret), func(c *gin.Context) {
		id, ok := UserID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, id.String())
	})
	return r
}

func signed(t *testing.T, claims jwt.MapClaims, method jwt.SigningMethod, key any) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
	}{
		{
			name:       "valid token",
			header:     testhelpers.GenerateTestJWTWithBearer(t, userID.String()),
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header",
			wantStatus: http.StatusUnauthorized,
			wantError:  "missing authorization header",
		},
		{
			name:       "not bearer",
			header:     "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
			wantError:  "invalid authorization header format",
		},
		{
			name:       "not a jwt",
			header:     "Bearer abc",
			wantStatus: http.StatusUnauthorized,
			wantError:  "invalid token format",
		},
		{
			name: "wrong secret",
			header: "Bearer " + signed(t, jwt.MapClaims{
				"sub": userID.String(),
				"exp": time.Now().Add(time.Hour).Unix(),
			}, jwt.SigningMethodHS256, []byte("other-secret")),
			wantStatus: http.StatusUnauthorized,
			wantError:  "invalid token",
		},
		{
			name: "expired",
			header: "Bearer " + signed(t, jwt.MapClaims{
				"sub": userID.String(),
				"exp": time.Now().Add(-time.Hour).Unix(),
			}, jwt.SigningMethodHS256, []byte(testhelpers.TestJWTSecret)),
			wantStatus: http.StatusUnauthorized,
			wantError:  "invalid token",
		},
		{
			name: "wrong algorithm",
			header: "Bearer " + signed(t, jwt.MapClaims{
				"sub": userID.String(),
			}, jwt.SigningMethodHS512, []byte(testhelpers.TestJWTSecret)),
			wantStatus: http.StatusUnauthorized,
			wantError:  "invalid token",
		},
		{
			name:       "subject is not a uuid",
			header:     testhelpers.GenerateTestJWTWithBearer(t, "anonymous"),
			wantStatus: http.StatusUnauthorized,
			wantError:  "invalid user id in token",
		},
	}

	router := newRouter(zap.NewNop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantError == "" {
				assert.Equal(t, userID.String(), w.Body.String())
				return
			}
			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantError, resp.Error)
		})
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := newRouter(zap.New(core))
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", testhelpers.GenerateTestJWTWithBearer(t, userID.String()))
	router.ServeHTTP(httptest.NewRecorder(), req)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/me", nil))

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "Request handled", entries[0].Message)
	assert.Equal(t, "/me", first["path"])
	assert.Equal(t, int64(http.StatusOK), first["status"])
	assert.Equal(t, userID.String(), first["user_id"])

	assert.Equal(t, "Request rejected", entries[1].Message)
	assert.NotContains(t, entries[1].ContextMap(), "user_id")
}
