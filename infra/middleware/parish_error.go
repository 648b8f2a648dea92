// Package middleware holds the Fiber middleware stack.
package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"parish_server/pkg/apperr"
	"parish_server/pkg/logger"
)

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Success   bool        `json:"success"`
	Error     ErrorDetail `json:"error"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorHandler turns application errors into the standard envelope with
// the matching HTTP status.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		requestID, _ := c.Locals("request_id").(string)

		response := ErrorResponse{
			RequestID: requestID,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}

		status := fiber.StatusInternalServerError

		var appErr *apperr.AppError
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &appErr):
			status = appErr.Status
			response.Error = ErrorDetail{
				Code:    appErr.Code,
				Message: appErr.Message,
				Details: appErr.Details,
			}
			log := logger.WithField("request_id", requestID).
				WithField("error_code", appErr.Code).
				WithError(appErr.Err)
			if status >= 500 {
				log.Error(appErr.Message)
			} else {
				log.Warn(appErr.Message)
			}

		case errors.As(err, &fiberErr):
			status = fiberErr.Code
			response.Error = ErrorDetail{
				Code:    apperr.CodeBadRequest,
				Message: fiberErr.Message,
			}

		default:
			response.Error = ErrorDetail{
				Code:    apperr.CodeInternal,
				Message: "an unexpected error occurred",
			}
			logger.WithField("request_id", requestID).WithError(err).Error("unhandled error")
		}

		return c.Status(status).JSON(response)
	}
}
