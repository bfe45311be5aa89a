// Package http holds the thin Gin request handlers that authenticate a
// bearer token, extract userId, and dispatch to the Room Service.
package http

import (
	"time"

	"github.com/gin-gonic/gin"
)

// successEnvelope is every success response's shape.
type successEnvelope struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// failureEnvelope is every error response's shape.
type failureEnvelope struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
	Path       string `json:"path"`
}

// Success writes the standard {code:0,message:"success",data} envelope.
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, successEnvelope{Code: 0, Message: "success", Data: data})
}

// successAck is the {success:true} payload used by mutations that don't
// otherwise return data (leave, remove, close, set-labels, set-rules).
type successAck struct {
	Success bool `json:"success"`
}

// Ack writes the standard success envelope wrapping {success:true}.
func Ack(c *gin.Context) {
	Success(c, successAck{Success: true})
}

// Failure writes the standard error envelope at the given HTTP status.
func Failure(c *gin.Context, status int, message string) {
	c.JSON(status, failureEnvelope{
		StatusCode: status,
		Message:    message,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Path:       c.Request.URL.Path,
	})
}
