package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope defines the uniform structure for API responses.
type Envelope struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Respond writes a JSON response; the envelope status mirrors the HTTP status.
func Respond(ctx *gin.Context, status int, message string, data interface{}) {
	ctx.JSON(status, Envelope{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// Success returns a 200 response.
func Success(ctx *gin.Context, message string, data interface{}) {
	Respond(ctx, http.StatusOK, message, data)
}

// Created returns a 201 response.
func Created(ctx *gin.Context, message string, data interface{}) {
	Respond(ctx, http.StatusCreated, message, data)
}

// Error returns an error response. Internal details are logged by callers,
// never echoed to the client.
func Error(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, Envelope{
		Status:  status,
		Message: message,
	})
}

// ValidationError returns a 400 response carrying the validation detail.
func ValidationError(ctx *gin.Context, detail string) {
	ctx.JSON(http.StatusBadRequest, Envelope{
		Status:  http.StatusBadRequest,
		Message: "validation failed",
		Error:   detail,
	})
}
