package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/velotrail/velotrail/pkg/ctxmeta"
	"github.com/velotrail/velotrail/pkg/httpx"
)

func TestRequestIDMiddleware_GeneratesWhenAbsent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(httpx.RequestIDMiddleware())

	var inCtx string
	r.GET("/x", func(c *gin.Context) {
		inCtx, _ = ctxmeta.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", http.NoBody))

	header := w.Header().Get("X-Request-ID")
	if header == "" {
		t.Fatalf("X-Request-ID header must be set")
	}
	if inCtx != header {
		t.Fatalf("ctx request_id=%q, header=%q — must match", inCtx, header)
	}
}

func TestRequestIDMiddleware_KeepsClientID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(httpx.RequestIDMiddleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/x", http.NoBody)
	req.Header.Set("X-Request-ID", "client-rid-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "client-rid-1" {
		t.Fatalf("client request id must be preserved, got %q", got)
	}
}
