package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"docstore/internal/apperror"
	"docstore/internal/http/middleware"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

type errorMapping struct {
	status  int
	code    string
	message string
}

// kindMappings translates error kinds to responses. Caller errors echo their
// message; backend errors use a fixed one.
var kindMappings = map[apperror.Kind]errorMapping{
	apperror.KindValidation:         {fiber.StatusBadRequest, "VALIDATION_ERROR", ""},
	apperror.KindMalformedContent:   {fiber.StatusBadRequest, "MALFORMED_CONTENT", "content is not valid base64"},
	apperror.KindSizeMismatch:       {fiber.StatusBadRequest, "SIZE_MISMATCH", ""},
	apperror.KindNotFound:           {fiber.StatusNotFound, "NOT_FOUND", "document not found"},
	apperror.KindDuplicateID:        {fiber.StatusConflict, "DUPLICATE_ID", "document id already used"},
	apperror.KindStorageUnavailable: {fiber.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "storage temporarily unavailable"},
	apperror.KindIngestionFailed:    {fiber.StatusBadGateway, "INGESTION_FAILED", "document could not be stored"},
	apperror.KindCorruptState:       {fiber.StatusInternalServerError, "CORRUPT_STATE", "document content is unavailable"},
}

// writeServiceError maps a service error onto the standardized error response.
func writeServiceError(c *fiber.Ctx, err error) error {
	m, ok := kindMappings[apperror.KindOf(err)]
	if !ok {
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
	msg := m.message
	if msg == "" {
		var ae *apperror.Error
		if errors.As(err, &ae) && ae.Msg != "" {
			msg = ae.Msg
		} else {
			msg = "bad request"
		}
	}
	return writeError(c, m.status, m.code, msg)
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if apperror.KindOf(err) != apperror.KindUnknown {
			return writeServiceError(c, err)
		}

		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
