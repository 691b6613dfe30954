package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cinsua/masirep-sub002/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func corsRequest(origins, method, origin string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.CORS(origins))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, "/x", nil)
	req.Header.Set("Origin", origin)
	r.ServeHTTP(w, req)
	return w
}

func TestCORS_Comodin(t *testing.T) {
	w := corsRequest("*", http.MethodGet, "http://cualquiera")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_ListaPermitida(t *testing.T) {
	w := corsRequest("http://a.local, http://b.local", http.MethodGet, "http://b.local")
	assert.Equal(t, "http://b.local", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))

	w = corsRequest("http://a.local", http.MethodGet, "http://c.local")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	w := corsRequest("*", http.MethodOptions, "http://a.local")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
}
