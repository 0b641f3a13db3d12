package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankroll/internal/config"
	apperrors "bankroll/internal/errors"
	"bankroll/internal/logger"
)

const testSecret = "middleware-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	config.Set(&config.Config{IdentityTokenSecret: testSecret})
}

func setupAuthRouter() *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware())
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": c.GetString(UIDKey), "email": c.GetString(EmailKey)})
	})
	return r
}

func doRequest(r *gin.Engine, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", http.NoBody)
	if header != "" {
		req.Header.Set(header, value)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return result
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := parseBody(t, rec)
	errObj, ok := body["error"].(map[string]interface{})
	require.True(t, ok, "expected error object, got %v", body)
	code, _ := errObj["code"].(string)
	return code
}

func signWith(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestAuthMiddleware(t *testing.T) {
	valid, err := IssueIdentityToken("uid-1", "one@example.com", time.Hour)
	require.NoError(t, err)
	expired, err := IssueIdentityToken("uid-1", "one@example.com", -time.Minute)
	require.NoError(t, err)
	noSubject := signWith(t, jwt.SigningMethodHS256, []byte(testSecret), &IdentityClaims{Email: "x@example.com"})
	wrongKey := signWith(t, jwt.SigningMethodHS256, []byte("other"), &IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "uid-1"},
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing_header", "", http.StatusUnauthorized},
		{"not_bearer", "Token " + valid, http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"no_subject", "Bearer " + noSubject, http.StatusUnauthorized},
		{"wrong_key", "Bearer " + wrongKey, http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusOK},
	}

	r := setupAuthRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(r, "Authorization", tt.header)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				assert.Equal(t, "UNAUTHORIZED", errorCode(t, rec))
				return
			}
			body := parseBody(t, rec)
			assert.Equal(t, "uid-1", body["uid"])
			assert.Equal(t, "one@example.com", body["email"])
		})
	}
}

func TestAuthMiddleware_Issuer(t *testing.T) {
	config.Set(&config.Config{IdentityTokenSecret: testSecret, IdentityIssuer: "https://id.example.com"})
	defer config.Set(&config.Config{IdentityTokenSecret: testSecret})

	good, err := IssueIdentityToken("uid-2", "", time.Hour)
	require.NoError(t, err)
	bad := signWith(t, jwt.SigningMethodHS256, []byte(testSecret), &IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "uid-2", Issuer: "someone-else"},
	})

	r := setupAuthRouter()
	assert.Equal(t, http.StatusOK, doRequest(r, "Authorization", "Bearer "+good).Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "Authorization", "Bearer "+bad).Code)
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/app", func(c *gin.Context) {
		_ = c.Error(apperrors.Wrap(apperrors.ErrPersistenceFailed, errors.New("write timeout")))
	})
	r.GET("/plain", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
	})
	r.GET("/written", func(c *gin.Context) {
		c.JSON(http.StatusTeapot, gin.H{"ok": true})
		_ = c.Error(errors.New("after write"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app", http.NoBody))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "PERSISTENCE_FAILED", errorCode(t, rec))
	assert.NotContains(t, rec.Body.String(), "write timeout")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plain", http.NoBody))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, rec))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/written", http.NoBody))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRequestLogging(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogging())
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(requestIDKey))
	})

	rec := doRequest(r, "", "")
	generated := rec.Header().Get(requestIDHeader)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)
	assert.Equal(t, generated, rec.Body.String())

	incoming := uuid.New().String()
	rec = doRequest(r, requestIDHeader, incoming)
	assert.Equal(t, incoming, rec.Header().Get(requestIDHeader))

	rec = doRequest(r, requestIDHeader, "not-a-uuid")
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(requestIDHeader))
}
