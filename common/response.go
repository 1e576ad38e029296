package common

import "github.com/gin-gonic/gin"

func RespondData(c *gin.Context, status int, message string, data any) {
	c.JSON(status, gin.H{
		"message": message,
		"data":    data,
	})
}

func RespondList(c *gin.Context, status int, message string, count int, data any) {
	c.JSON(status, gin.H{
		"message": message,
		"count":   count,
		"data":    data,
	})
}

func RespondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}
