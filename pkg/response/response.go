package response

import "github.com/gin-gonic/gin"

// Error writes the uniform error envelope used across handlers.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// AbortError ends the middleware chain with the error envelope.
func AbortError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
