//go:build embed
// +build embed

package main

import (
	"embed"
	"io"
	"io/fs"
	"log"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
)

//go:embed web/dist
var webDist embed.FS

// setupStaticFiles serves the embedded site pages (index, listings, listing-details)
func setupStaticFiles(router *gin.Engine) {
	log.Println("📦 Using embedded frontend assets")

	distFS, err := fs.Sub(webDist, "web/dist")
	if err != nil {
		log.Fatalf("Failed to get dist subdirectory: %v", err)
	}

	router.NoRoute(func(c *gin.Context) {
		urlPath := c.Request.URL.Path

		// Skip API routes (they are handled by other routes)
		if strings.HasPrefix(urlPath, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
			return
		}

		cleanPath := path.Clean(urlPath)
		if cleanPath == "/" {
			cleanPath = "/index.html"
		}
		cleanPath = strings.TrimPrefix(cleanPath, "/")
		// pages are linked without the extension as well
		if path.Ext(cleanPath) == "" {
			cleanPath += ".html"
		}

		content, err := readFile(distFS, cleanPath)
		if err != nil {
			c.String(http.StatusNotFound, "404 page not found")
			return
		}

		contentType := mime.TypeByExtension(path.Ext(cleanPath))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		c.Data(http.StatusOK, contentType, content)
	})
}

func readFile(fsys fs.FS, name string) ([]byte, error) {
	file, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if stat.IsDir() {
		return nil, fs.ErrNotExist
	}
	return io.ReadAll(file)
}
