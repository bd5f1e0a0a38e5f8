package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"example.com/uxwriter/internal/ai"
	"example.com/uxwriter/internal/billing"
	"example.com/uxwriter/internal/models"
	"example.com/uxwriter/internal/studio"
)

const (
	codeInvalidRequest      = "invalid_request"
	codeEmptyPrompt         = "empty_prompt"
	codeUnknownCategory     = "unknown_category"
	codeInsufficientCredits = "insufficient_credits"
	codeMissingCredential   = "missing_credential"
	codeProviderError       = "provider_error"
	codeTransportError      = "transport_error"
	codeUnknownPlan         = "unknown_plan"
	codeNotFound            = "not_found"
	codeUnauthorized        = "unauthorized"
	codeInternal            = "internal_error"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondError(c echo.Context, status int, code, message string) error {
	return c.JSON(status, ErrorResponse{Error: message, Code: code})
}

func badRequest(c echo.Context, message string) error {
	return respondError(c, http.StatusBadRequest, codeInvalidRequest, message)
}

func unauthorized(c echo.Context) error {
	return respondError(c, http.StatusUnauthorized, codeUnauthorized, "invalid device token")
}

func notFound(c echo.Context, message string) error {
	return respondError(c, http.StatusNotFound, codeNotFound, message)
}

func serverError(c echo.Context) error {
	return respondError(c, http.StatusInternalServerError, codeInternal, "internal server error")
}

// domainError переводит ошибки генерации и покупки в HTTP-ответ.
func domainError(c echo.Context, err error) error {
	var providerErr *ai.ProviderError
	var transportErr *ai.TransportError

	switch {
	case errors.Is(err, studio.ErrEmptyPrompt):
		return respondError(c, http.StatusBadRequest, codeEmptyPrompt, "Please provide a description of the content you need.")
	case errors.Is(err, models.ErrUnknownCategory):
		return respondError(c, http.StatusBadRequest, codeUnknownCategory, "unknown content category")
	case errors.Is(err, studio.ErrInsufficientCredits):
		return respondError(c, http.StatusPaymentRequired, codeInsufficientCredits, "Please purchase more credits to continue generating content.")
	case errors.Is(err, ai.ErrMissingCredential):
		return respondError(c, http.StatusPreconditionFailed, codeMissingCredential, "API key is required")
	case errors.Is(err, billing.ErrUnknownPlan):
		return respondError(c, http.StatusNotFound, codeUnknownPlan, "unknown credit plan")
	case errors.As(err, &providerErr):
		return respondError(c, http.StatusBadGateway, codeProviderError, providerErr.Message)
	case errors.As(err, &transportErr):
		return respondError(c, http.StatusGatewayTimeout, codeTransportError, "There was an error generating your content. Please try again.")
	default:
		return serverError(c)
	}
}

// HTTPErrorHandler отдает ошибки роутера и middleware в общем формате.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "internal server error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		message = fmt.Sprint(he.Message)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = respondError(c, status, codeForStatus(status), message)
	}
	if writeErr != nil {
		slog.Error("failed to write error response", slog.String("error", writeErr.Error()))
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return codeInvalidRequest
	case http.StatusUnauthorized:
		return codeUnauthorized
	case http.StatusNotFound:
		return codeNotFound
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusRequestEntityTooLarge:
		return "payload_too_large"
	}

	if status < http.StatusInternalServerError {
		return codeInvalidRequest
	}
	return codeInternal
}
