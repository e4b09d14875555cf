package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type routeRegistrarFunc func(rg *gin.RouterGroup)

func (f routeRegistrarFunc) RegisterRoutes(rg *gin.RouterGroup) { f(rg) }

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))

	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterRegister(t *testing.T) {
	r := NewRouter(gin.New())

	r.Register(routeRegistrarFunc(func(rg *gin.RouterGroup) {}))

	assert.Len(t, r.registrars, 1)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	r.Register(routeRegistrarFunc(func(rg *gin.RouterGroup) {
		rg.GET("/system/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})
	}))
	r.Setup()

	req := httptest.NewRequest("GET", "/api/v1/system/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestRouterSetup_VersionPrefix(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))

	r.Register(routeRegistrarFunc(func(rg *gin.RouterGroup) {
		rg.GET("/ledger/balance", func(c *gin.Context) {
			c.String(http.StatusOK, "0")
		})
	}))
	r.Setup()

	// mounted only under the configured version
	req := httptest.NewRequest("GET", "/api/v2/ledger/balance", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("GET", "/api/v1/ledger/balance", nil)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouterRegister_Multiple(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	settlements := routeRegistrarFunc(func(rg *gin.RouterGroup) {
		rg.GET("/settlements", func(c *gin.Context) {
			c.String(http.StatusOK, "settlements")
		})
	})
	ledger := routeRegistrarFunc(func(rg *gin.RouterGroup) {
		rg.GET("/ledger/balance", func(c *gin.Context) {
			c.String(http.StatusOK, "balance")
		})
	})

	r.Register(settlements).Register(ledger).Setup()

	req := httptest.NewRequest("GET", "/api/v1/settlements", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "settlements", w.Body.String())

	req = httptest.NewRequest("GET", "/api/v1/ledger/balance", nil)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "balance", w.Body.String())
}
