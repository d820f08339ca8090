package utils

import "github.com/gin-gonic/gin"

// ErrorResponse is the body of every failed request.
func ErrorResponse(message string) gin.H {
	return gin.H{"message": message}
}

// CodedErrorResponse adds a machine-readable code next to the message.
func CodedErrorResponse(code, message string) gin.H {
	return gin.H{"message": message, "code": code}
}

func SuccessResponse(message string) gin.H {
	return gin.H{"message": message}
}
