// Package httpx provides HTTP response utilities and the error payload every
// failed request is answered with.
package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/animedojo/anime-api/internal/shared"
)

// Titles are part of the wire contract.
const (
	TitleBadRequest      = "Bad Request Exception, Check the Documentation"
	TitleInvalidFields   = "Bad Request Exception, Invalid Fields"
	TitleUnauthenticated = "Unauthenticated, Credentials Required"
	TitleForbidden       = "Forbidden, Insufficient Role"
	TitleRouteNotFound   = "Not Found, Check the Documentation"
	TitleTooManyRequests = "Too Many Requests, Slow Down"
	TitleTimeout         = "Gateway Timeout, Request Took Too Long"
	TitleInternal        = "Internal Server Error"

	detailsInternal        = "An unexpected error occurred, contact support with the request id"
	detailsTooManyRequests = "Rate limit exceeded, retry after the current window"
	detailsTimeout         = "The request did not complete before its deadline"
)

// Developer messages identify the failure kind without exposing internals.
const (
	devNotFound        = "shared.NotFoundError"
	devBadRequest      = "shared.BadRequest"
	devValidation      = "shared.ValidationError"
	devCredentials     = "auth.InvalidCredentials"
	devUnauthenticated = "rbac.Unauthenticated"
	devForbidden       = "rbac.Forbidden"
	devRouteNotFound   = "http.RouteNotFound"
	devTooManyRequests = "http.TooManyRequests"
	devTimeout         = "http.Timeout"
)

// Payload is the canonical error body. ValidationDetails is set only for
// validation failures and its fields are flattened into the JSON object.
type Payload struct {
	Timestamp        time.Time `json:"timestamp"`
	Status           int       `json:"status"`
	Title            string    `json:"title"`
	Details          string    `json:"details"`
	DeveloperMessage string    `json:"developerMessage"`
	*ValidationDetails
}

// ValidationDetails lists every invalid field in declaration order.
type ValidationDetails struct {
	Fields        string        `json:"fields"`
	FieldsMessage string        `json:"fieldsMessage"`
	Errors        []FieldDetail `json:"errors"`
}

// FieldDetail names one invalid field.
type FieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Translate maps err onto its payload. It never panics; anything it cannot
// classify becomes the generic 500 form.
func Translate(err error, now time.Time) (p Payload) {
	defer func() {
		if recover() != nil {
			p = internalPayload(now)
		}
	}()
	return translate(err, now)
}

func translate(err error, now time.Time) Payload {
	if err == nil {
		return internalPayload(now)
	}
	var validation *shared.ValidationError
	switch {
	case errors.As(err, &validation) && validation.HasErrors():
		return validationPayload(validation, now)
	case errors.Is(err, shared.ErrValidation):
		return clientPayload(now, http.StatusBadRequest, TitleInvalidFields, err, devValidation)
	case errors.Is(err, shared.ErrNotFound):
		return clientPayload(now, http.StatusBadRequest, TitleBadRequest, err, devNotFound)
	case errors.Is(err, shared.ErrBadRequest):
		return clientPayload(now, http.StatusBadRequest, TitleBadRequest, err, devBadRequest)
	case errors.Is(err, shared.ErrInvalidCredentials):
		return clientPayload(now, http.StatusForbidden, TitleUnauthenticated, err, devCredentials)
	case errors.Is(err, shared.ErrUnauthenticated):
		return clientPayload(now, http.StatusForbidden, TitleUnauthenticated, err, devUnauthenticated)
	case errors.Is(err, shared.ErrForbidden):
		return clientPayload(now, http.StatusForbidden, TitleForbidden, err, devForbidden)
	case errors.Is(err, shared.ErrRouteNotFound):
		return clientPayload(now, http.StatusNotFound, TitleRouteNotFound, err, devRouteNotFound)
	case errors.Is(err, shared.ErrTooManyRequests):
		return fixedPayload(now, http.StatusTooManyRequests, TitleTooManyRequests, detailsTooManyRequests, devTooManyRequests)
	case errors.Is(err, shared.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return fixedPayload(now, http.StatusGatewayTimeout, TitleTimeout, detailsTimeout, devTimeout)
	default:
		return internalPayload(now)
	}
}

func clientPayload(now time.Time, status int, title string, err error, dev string) Payload {
	details := err.Error()
	if details == "" {
		details = title
	}
	return Payload{
		Timestamp:        now,
		Status:           status,
		Title:            title,
		Details:          details,
		DeveloperMessage: dev,
	}
}

// fixedPayload never echoes the error text.
func fixedPayload(now time.Time, status int, title, details, dev string) Payload {
	return Payload{
		Timestamp:        now,
		Status:           status,
		Title:            title,
		Details:          details,
		DeveloperMessage: dev,
	}
}

func validationPayload(v *shared.ValidationError, now time.Time) Payload {
	names := make([]string, 0, len(v.Fields))
	messages := make([]string, 0, len(v.Fields))
	details := make([]FieldDetail, 0, len(v.Fields))
	for _, f := range v.Fields {
		names = append(names, f.Field)
		messages = append(messages, f.Message)
		details = append(details, FieldDetail{Field: f.Field, Message: f.Message})
	}
	return Payload{
		Timestamp:        now,
		Status:           http.StatusBadRequest,
		Title:            TitleInvalidFields,
		Details:          "Check the field(s) error",
		DeveloperMessage: devValidation,
		ValidationDetails: &ValidationDetails{
			Fields:        strings.Join(names, ", "),
			FieldsMessage: strings.Join(messages, ", "),
			Errors:        details,
		},
	}
}

func internalPayload(now time.Time) Payload {
	return Payload{
		Timestamp:        now,
		Status:           http.StatusInternalServerError,
		Title:            TitleInternal,
		Details:          detailsInternal,
		DeveloperMessage: "",
	}
}

// RespondError translates err, logs it and writes the payload. Internal
// failures are logged with the original error and answered with the request
// id only.
func RespondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	payload := Translate(err, time.Now().UTC())
	reqID := middleware.GetReqID(r.Context())
	if payload.Status >= http.StatusInternalServerError {
		if reqID != "" {
			payload.DeveloperMessage = "request_id=" + reqID
		}
		if logger != nil {
			logger.Error("request failed", slog.String("path", r.URL.Path), slog.String("request_id", reqID), slog.Any("error", err))
		}
	} else if logger != nil {
		logger.Warn("request rejected", slog.String("path", r.URL.Path), slog.Int("status", payload.Status), slog.String("request_id", reqID), slog.Any("error", err))
	}
	JSON(w, payload.Status, payload)
}
