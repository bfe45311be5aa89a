package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httphandler "roomsplit/internal/handler/http"
	"roomsplit/internal/token"
)

type stubAuthProvider struct {
	userID string
	err    error
}

func (s stubAuthProvider) ExchangeCredential(ctx context.Context, credential string) (string, error) {
	return s.userID, s.err
}

func TestLogin_Success_IssuesToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens, err := token.NewService("secret", time.Hour)
	require.NoError(t, err)

	handler := httphandler.NewLoginHandler(stubAuthProvider{userID: "user-1"}, tokens)
	router := gin.New()
	router.POST("/login", handler.Login)

	body, _ := json.Marshal(map[string]string{"credential": "external-cred"})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.Data.Token)

	userID, err := tokens.Verify(out.Data.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestLogin_CredentialExchangeFails_RendersUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens, err := token.NewService("secret", time.Hour)
	require.NoError(t, err)

	handler := httphandler.NewLoginHandler(stubAuthProvider{err: assertExchangeErr}, tokens)
	router := gin.New()
	router.POST("/login", handler.Login)

	body, _ := json.Marshal(map[string]string{"credential": "bad-cred"})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

var assertExchangeErr = errExchangeFailed{}

type errExchangeFailed struct{}

func (errExchangeFailed) Error() string { return "exchange failed" }
