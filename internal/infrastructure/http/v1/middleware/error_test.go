package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"larder/internal/core/apperror"
)

func newErrorTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(ErrorHandler())

	router.GET("/missing", func(c *gin.Context) {
		c.Error(apperror.NewNotFound("order", "ORD26081234"))
		c.Abort()
	})
	router.GET("/transition", func(c *gin.Context) {
		c.Error(apperror.NewInvalidTransition("order", "delivered", "delivered"))
		c.Abort()
	})
	router.GET("/boom", func(c *gin.Context) {
		c.Error(errors.New("pool exhausted"))
		c.Abort()
	})
	router.GET("/clean", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	return router
}

func performRequest(router *gin.Engine, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(rec, req)
	return rec
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorHandler(t *testing.T) {
	router := newErrorTestRouter()

	t.Run("app error maps to its status and code", func(t *testing.T) {
		rec := performRequest(router, "/missing")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		body := decodeErrorBody(t, rec)
		assert.Equal(t, apperror.CodeNotFound, body["code"])
	})

	t.Run("invalid transition maps to unprocessable entity", func(t *testing.T) {
		rec := performRequest(router, "/transition")

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decodeErrorBody(t, rec)
		assert.Equal(t, apperror.CodeInvalidTransition, body["code"])
	})

	t.Run("unknown error is hidden behind internal error", func(t *testing.T) {
		rec := performRequest(router, "/boom")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeErrorBody(t, rec)
		assert.Equal(t, apperror.CodeInternal, body["code"])
		assert.NotContains(t, rec.Body.String(), "pool exhausted")
	})

	t.Run("no error leaves the response untouched", func(t *testing.T) {
		rec := performRequest(router, "/clean")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	})
}
