package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// mountStatic serves the built board SPA. API routes keep returning JSON
// 404s; every other unknown path falls back to index.html so client-side
// routing works after a hard refresh.
func (s *Server) mountStatic() {
	if s.staticDir == "" {
		s.logger.Warn("static directory not configured; API only mode")
		return
	}

	info, err := os.Stat(s.staticDir)
	if err != nil || !info.IsDir() {
		s.logger.Warn("static directory missing", "path", s.staticDir, "error", err)
		return
	}

	indexPath := filepath.Join(s.staticDir, "index.html")
	if _, err := os.Stat(indexPath); err != nil {
		s.logger.Warn("index.html not found", "path", indexPath, "error", err)
		return
	}

	s.engine.GET("/", func(c *gin.Context) {
		c.File(indexPath)
	})
	s.engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
			return
		}
		c.File(indexPath)
	})

	if assetsDir := filepath.Join(s.staticDir, "assets"); dirExists(assetsDir) {
		s.engine.StaticFS("/assets", gin.Dir(assetsDir, true))
	}
	if favicon := filepath.Join(s.staticDir, "favicon.ico"); fileExists(favicon) {
		s.engine.StaticFile("/favicon.ico", favicon)
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
