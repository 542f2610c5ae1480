package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"nutriscan/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticResolver map[string]uint

func (r staticResolver) ResolveToken(_ context.Context, token string) (uint, error) {
	if token == "boom" {
		return 0, errors.New("redis down")
	}
	id, ok := r[token]
	if !ok {
		return 0, apperr.Unauthorized("invalid or expired token")
	}
	return id, nil
}

func perform(r http.Handler, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestErrorHandlerMapsKinds(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
		msg    string
	}{
		{apperr.Unauthorized("no token"), http.StatusUnauthorized, "unauthorized", "no token"},
		{apperr.Forbidden("not yours"), http.StatusForbidden, "forbidden", "not yours"},
		{apperr.NotFound("discussion %d not found", 7), http.StatusNotFound, "not_found", "discussion 7 not found"},
		{apperr.InvalidArgument("bad"), http.StatusBadRequest, "invalid_argument", "bad"},
		{apperr.Conflict("taken"), http.StatusConflict, "conflict", "taken"},
		{fmt.Errorf("wrapped: %w", apperr.Conflict("taken")), http.StatusConflict, "conflict", "taken"},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, "internal", internalMessage},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			r := gin.New()
			r.Use(ErrorHandler())
			r.GET("/x", func(c *gin.Context) { _ = c.Error(tt.err) })

			w := perform(r, http.MethodGet, "/x", nil)
			assert.Equal(t, tt.status, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, tt.code, body["code"])
			assert.Equal(t, tt.msg, body["error"])
		})
	}
}

func TestErrorHandlerRecoversPanic(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/panic", func(c *gin.Context) { panic("nil map") })

	w := perform(r, http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal", decodeError(t, w)["code"])
}

func TestErrorHandlerKeepsWrittenResponse(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/ok", func(c *gin.Context) {
		_ = c.Error(errors.New("logged only"))
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := perform(r, http.MethodGet, "/ok", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestAuth(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(), LoadUser(staticResolver{"good": 42}))
	r.GET("/public", func(c *gin.Context) {
		id, ok := CurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "ok": ok})
	})
	r.GET("/private", AuthRequired(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(TokenKey))
	})

	w := perform(r, http.MethodGet, "/public", map[string]string{"Authorization": "Bearer good"})
	assert.JSONEq(t, `{"id":42,"ok":true}`, w.Body.String())

	// 公共路由上无效 token 不报错
	w = perform(r, http.MethodGet, "/public", map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":0,"ok":false}`, w.Body.String())

	w = perform(r, http.MethodGet, "/public", map[string]string{"Authorization": "Bearer boom"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(r, http.MethodGet, "/private", map[string]string{"Authorization": "bearer good"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "good", w.Body.String())

	for _, h := range []string{"", "Bearer", "Basic good", "Bearer nope"} {
		w = perform(r, http.MethodGet, "/private", map[string]string{"Authorization": h})
		assert.Equal(t, http.StatusUnauthorized, w.Code, h)
		assert.Equal(t, "unauthorized", decodeError(t, w)["code"])
	}
}

func TestAdminKeyRequired(t *testing.T) {
	newEngine := func(key string) *gin.Engine {
		r := gin.New()
		r.Use(ErrorHandler())
		r.GET("/admin", AdminKeyRequired(key), func(c *gin.Context) { c.Status(http.StatusNoContent) })
		return r
	}

	w := perform(newEngine(""), http.MethodGet, "/admin", map[string]string{AdminKeyHeader: ""})
	assert.Equal(t, http.StatusNotFound, w.Code)

	r := newEngine("s3cret")
	w = perform(r, http.MethodGet, "/admin", map[string]string{AdminKeyHeader: "guess"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = perform(r, http.MethodGet, "/admin", map[string]string{AdminKeyHeader: "s3cret"})
	assert.Equal(t, http.StatusNoContent, w.Code)
}
