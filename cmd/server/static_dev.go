//go:build !embed
// +build !embed

package main

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// setupStaticFiles serves the site from ./web for development (no embedding)
func setupStaticFiles(router *gin.Engine) {
	log.Println("🔧 Using local filesystem for frontend assets (development mode)")
	log.Println("   Pages are read from ./web on every request")

	router.Static("/css", "./web/css")
	router.Static("/js", "./web/js")
	router.Static("/images", "./web/images")
	router.StaticFile("/", "./web/index.html")
	router.StaticFile("/listings.html", "./web/listings.html")
	router.StaticFile("/listing-details.html", "./web/listing-details.html")

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Page not found",
			"hint":  "Build with -tags embed to serve the bundled site",
		})
	})
}
