// Package server exposes the schema provider over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/hurou927/pg-schema-explorer/internal/catalog"
)

// Options configures the HTTP transport.
type Options struct {
	Addr             string
	AllowedOrigins   []string
	Descriptor       string
	IncludeFunctions bool
	Exclude          map[string]bool
}

// NewRouter builds the gin engine with every route under /api/v1.
func NewRouter(p catalog.SchemaProvider, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowMethods = []string{http.MethodGet, http.MethodPut, http.MethodOptions}
	if len(opts.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = opts.AllowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	router.Use(cors.New(corsCfg))

	api := router.Group("/api/v1")
	NewSchemaRoutes(NewSchemaHandler(p, opts)).RegisterRoutes(api)
	return router
}

// New creates the HTTP server; the caller runs and shuts it down.
func New(p catalog.SchemaProvider, opts Options) *http.Server {
	return &http.Server{
		Addr:         opts.Addr,
		Handler:      NewRouter(p, opts),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}
}
