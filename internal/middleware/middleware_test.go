package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"trekhub_backend/internal/logger"
	"trekhub_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"viewer":     c.GetString(string(contextkeys.ViewerIDKey)),
			"request_id": logger.GetRequestID(c.Request.Context()),
		})
	})
	return r
}

func serve(r *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestIDMiddleware(t *testing.T) {
	r := newEngine(RequestIDMiddleware())

	w := serve(r, nil)
	generated := w.Header().Get(requestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Contains(t, w.Body.String(), generated)

	w = serve(r, map[string]string{requestIDHeader: "req-42"})
	assert.Equal(t, "req-42", w.Header().Get(requestIDHeader))
}

func TestViewerMiddleware(t *testing.T) {
	r := newEngine(ViewerMiddleware())
	id := "6f1c2b9a-1d2e-4f3a-9b8c-7d6e5f4a3b2c"

	w := serve(r, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"viewer":""`)

	w = serve(r, map[string]string{contextkeys.ViewerHeader: id})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), id)

	w = serve(r, map[string]string{contextkeys.ViewerHeader: "42"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireViewerAndRole(t *testing.T) {
	r := newEngine(ViewerMiddleware(), RequireViewer(), RoleMiddleware(RoleAdmin))
	viewer := map[string]string{contextkeys.ViewerHeader: "6f1c2b9a-1d2e-4f3a-9b8c-7d6e5f4a3b2c"}

	assert.Equal(t, http.StatusUnauthorized, serve(r, nil).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, viewer).Code)

	viewer[RoleHeader] = "Admin"
	assert.Equal(t, http.StatusOK, serve(r, viewer).Code)
}
