package utils

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

// StatusError is an error that knows its HTTP status
type StatusError interface {
	error
	StatusCode() int
}

// ErrorResponse sends a standard error response matching Node.js format
func ErrorResponse(c *fiber.Ctx, message string, status int, errorType string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}

// FailureResponse sends err as a standard error response, using its status
// when it carries one
func FailureResponse(c *fiber.Ctx, err error, errorType string) error {
	status := fiber.StatusInternalServerError
	var se StatusError
	if errors.As(err, &se) {
		status = se.StatusCode()
	}
	return ErrorResponse(c, err.Error(), status, errorType)
}

// NotFoundResponse sends a 404 not found response
func NotFoundResponse(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"status":    fiber.StatusNotFound,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
	})
}

// PayloadResponse sends an encoded payload
func PayloadResponse(c *fiber.Ctx, payload string) error {
	return c.Status(fiber.StatusOK).JSON(PayloadResponseStruct{Payload: payload})
}

// EmptyResponse sends an empty object, the answer for a missing instance
func EmptyResponse(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{})
}

// MessageResponse sends a success message
func MessageResponse(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusOK).JSON(MessageResponseStruct{Message: message})
}

// ErrorResponseStruct defines the schema for error responses
type ErrorResponseStruct struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Ok        bool   `json:"ok"`
	Timestamp string `json:"timestamp"`
	URL       string `json:"url"`
	Type      string `json:"type,omitempty"`
}

// PayloadResponseStruct defines the schema for encoded results
type PayloadResponseStruct struct {
	Payload string `json:"payload"`
}

// MessageResponseStruct defines the schema for success messages
type MessageResponseStruct struct {
	Message string `json:"message"`
}
