package utils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// APIResponse describes the envelope used by operational endpoints such as health.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
}

// DetailResponse is the error body returned by the activities endpoints.
type DetailResponse struct {
	Detail string `json:"detail"`
}

// SendSuccess sends a successful JSON envelope with a message.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	if message == "" {
		message = "success"
	}

	return c.Status(fiber.StatusOK).JSON(APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// SendJSON writes payload as-is with the given status code.
func SendJSON(c *fiber.Ctx, status int, payload interface{}) error {
	if status == 0 {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(payload)
}

// SendDetail sends an error body of the form {"detail": "..."}.
func SendDetail(c *fiber.Ctx, status int, detail string) error {
	if detail == "" {
		detail = "error"
	}

	return c.Status(status).JSON(DetailResponse{Detail: detail})
}

// ErrorHandler renders errors that escape handlers, including unmatched routes, as detail bodies.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		detail := fiberErr.Message
		if fiberErr.Code == fiber.StatusNotFound {
			detail = "Not Found"
		}
		return SendDetail(c, fiberErr.Code, detail)
	}

	return SendDetail(c, fiber.StatusInternalServerError, "Internal Server Error")
}
