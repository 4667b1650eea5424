package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/astro-otter/otterweb/internal/core/domain"
	"github.com/astro-otter/otterweb/internal/pkg/logging"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, not_found, internal_error, ...
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

func requestID(c *fiber.Ctx) string {
	reqID, _ := c.Locals("requestid").(string)
	return reqID
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: requestID(c),
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errInternal returns a 500 error. The cause is logged, not returned.
func errInternal(c *fiber.Ctx, err error) error {
	logging.FromContext(c.UserContext()).Error("request failed", "path", c.Path(), "error", err)
	return newError(c, fiber.StatusInternalServerError, "internal_error", "internal server error")
}

// errFrom maps a usecase error onto the matching JSON error.
func errFrom(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return errNotFound(c, err.Error())
	case isClientError(err):
		return errBadRequest(c, err.Error())
	default:
		return errInternal(c, err)
	}
}

// errorPage renders the HTML error page with status.
func errorPage(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).Render("error", fiber.Map{
		"Title":   statusText(status),
		"Status":  statusText(status),
		"Message": msg,
	}, "layouts/main")
}

// pageErrFrom maps a usecase error onto the matching HTML error page.
func pageErrFrom(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return errorPage(c, fiber.StatusNotFound, err.Error())
	case isClientError(err):
		return errorPage(c, fiber.StatusBadRequest, err.Error())
	default:
		logging.FromContext(c.UserContext()).Error("page failed", "path", c.Path(), "error", err)
		return errorPage(c, fiber.StatusInternalServerError, "Something went wrong while loading the catalog.")
	}
}

// ErrorHandler handles errors no handler dealt with: JSON under /api and
// /graphql, an HTML page everywhere else.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := "internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status, msg = fe.Code, fe.Message
	} else {
		logging.FromContext(c.UserContext()).Error("unhandled error", "path", c.Path(), "error", err)
	}

	if wantsJSON(c) {
		return newError(c, status, strings.ReplaceAll(strings.ToLower(statusText(status)), " ", "_"), msg)
	}
	if rerr := errorPage(c, status, msg); rerr != nil {
		return c.Status(status).SendString(msg)
	}
	return nil
}

func wantsJSON(c *fiber.Ctx) bool {
	p := c.Path()
	return strings.HasPrefix(p, "/api/") || p == "/graphql"
}

func statusText(status int) string {
	if s := utils.StatusMessage(status); s != "" {
		return s
	}
	return "Error"
}
