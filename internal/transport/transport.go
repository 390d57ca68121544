package transport

import (
	"net/http"

	"github.com/ds124wfegd/pagestudio/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

const requestIDKey = middleware.RequestIDKey

func InitRoutes(imgHandler *ImageHandler, timeoutSeconds int) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(timeoutSeconds))

	router.POST("/process_image", imgHandler.ProcessImage)
	router.POST("/upload", imgHandler.UploadImage)
	router.GET("/templates", imgHandler.ListTemplates)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "pagestudio-processor",
		})
	})
	return router
}
