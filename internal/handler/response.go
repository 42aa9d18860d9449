package handler

import (
	"github.com/gin-gonic/gin"
)

// The frontend consumes flat JSON documents, so errors are plain
// {"error": ...} objects rather than an envelope. Message carries the
// user-facing text when it differs from the machine-readable error.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func Error(c *gin.Context, status int, message string) {
	c.JSON(status, errorResponse{Error: message})
}

func ErrorWithMessage(c *gin.Context, status int, err, message string) {
	c.JSON(status, errorResponse{Error: err, Message: message})
}
