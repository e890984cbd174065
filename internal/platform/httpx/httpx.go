// Package httpx provides HTTP middleware and JSON response helpers shared by
// the storefront services.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	errori18n "github.com/louisbranch/storefront/internal/platform/errors/i18n"
	"github.com/louisbranch/storefront/internal/platform/i18n"
	"github.com/louisbranch/storefront/internal/platform/id"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request correlation id.
const RequestIDHeader = "X-Request-ID"

// MaxJSONBodyBytes bounds request bodies accepted by DecodeJSON.
const MaxJSONBodyBytes = 1 << 20

// Middleware wraps an HTTP handler.
type Middleware func(http.Handler) http.Handler

// Chain applies middleware in declaration order.
func Chain(handler http.Handler, middleware ...Middleware) http.Handler {
	if handler == nil {
		handler = http.NotFoundHandler()
	}
	wrapped := handler
	for idx := len(middleware) - 1; idx >= 0; idx-- {
		if middleware[idx] == nil {
			continue
		}
		wrapped = middleware[idx](wrapped)
	}
	return wrapped
}

// RequestID injects and echoes a request id for correlation.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
			if requestID == "" || len(requestID) > 128 {
				generated, err := id.NewID()
				if err != nil {
					generated = "unknown"
				}
				requestID = generated
				r.Header.Set(RequestIDHeader, requestID)
			}
			w.Header().Set(RequestIDHeader, requestID)
			next.ServeHTTP(w, r)
		})
	}
}

// RecoverPanic converts panics into HTTP 500 responses.
func RecoverPanic(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if recovered := recover(); recovered != nil {
					if recovered == http.ErrAbortHandler {
						panic(recovered)
					}
					logger.Error("panic recovered",
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.String("request_id", r.Header.Get(RequestIDHeader)),
						zap.Any("panic", recovered),
						zap.ByteString("stack", debug.Stack()),
					)
					WriteError(w, r, logger, fmt.Errorf("panic: %v", recovered))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// WriteJSON writes a JSON response with the provided status code.
func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return fmt.Errorf("response writer is required")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

// ErrorBody is the JSON envelope for error responses.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one error response.
type ErrorDetail struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// WriteError writes a localized JSON error. Errors without a domain code, and
// domain errors that map to 5xx, are logged and rendered as a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	if w == nil || err == nil {
		return
	}
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError && logger != nil {
		fields := []zap.Field{zap.Error(err)}
		if r != nil {
			fields = append(fields,
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("request_id", r.Header.Get(RequestIDHeader)),
			)
		}
		logger.Error("request failed", fields...)
	}

	tag, _ := i18n.ResolveTag(r)
	code, message := errori18n.Localize(i18n.LocaleString(tag), err)
	detail := ErrorDetail{Code: string(code), Message: message}
	if domainErr, ok := apperrors.As(err); ok && status < http.StatusInternalServerError {
		detail.Metadata = domainErr.Metadata
	}
	_ = WriteJSON(w, status, ErrorBody{Error: detail})
}

// DecodeJSON decodes a size-limited JSON body into target. Unknown fields and
// trailing data are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	if r == nil || r.Body == nil {
		return apperrors.New(apperrors.CodeInvalidBody, "request body is required")
	}
	body := http.MaxBytesReader(w, r.Body, MaxJSONBodyBytes)
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.New(apperrors.CodeInvalidBody, "request body is required")
		}
		return apperrors.Wrap(apperrors.CodeInvalidBody, "invalid JSON body", err)
	}
	if decoder.More() {
		return apperrors.New(apperrors.CodeInvalidBody, "request body must contain one JSON value")
	}
	return nil
}

// NotFound answers with the NOT_FOUND error envelope.
func NotFound(logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, logger, apperrors.New(apperrors.CodeNotFound, "not found"))
	})
}
