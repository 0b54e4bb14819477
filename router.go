package main

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getstreetcred/backend/handlers"
	"github.com/getstreetcred/backend/natsserver"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// maxBodyBytes bounds request bodies; project images arrive as data URLs
const maxBodyBytes = 10 << 20

// newRouter builds the engine. broker is nil unless the embedded NATS
// server is running.
func newRouter(h *handlers.Handler, backendName, staticDir string, broker *natsserver.EmbeddedNATS) *gin.Engine {
	router := gin.Default()

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(config))
	router.Use(limitBody(maxBodyBytes))

	router.GET("/health", func(c *gin.Context) {
		body := gin.H{
			"status":    "ok",
			"storage":   backendName,
			"timestamp": time.Now().Format(time.RFC3339),
		}
		if broker != nil {
			body["nats"] = broker.GetStats()
		}
		c.JSON(http.StatusOK, body)
	})

	handlers.RegisterRoutes(router.Group("/api"), h)

	serveSPA(router, staticDir)
	return router
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}

// serveSPA serves the client bundle, falling back to index.html for
// client-side routes. Unknown /api paths stay JSON 404s.
func serveSPA(router *gin.Engine, dir string) {
	index := filepath.Join(dir, "index.html")
	_, err := os.Stat(index)
	hasBundle := dir != "" && err == nil

	router.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/") || !hasBundle || c.Request.Method != http.MethodGet {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "kind": handlers.KindNotFound})
			return
		}

		file := filepath.Join(dir, filepath.Clean("/"+path))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
		c.File(index)
	})
}
