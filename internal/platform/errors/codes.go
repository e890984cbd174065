// Package errors provides structured error handling with i18n support.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Request errors
	CodeInvalidBody      Code = "REQUEST_INVALID_BODY"
	CodeInvalidFilter    Code = "REQUEST_INVALID_FILTER"
	CodeInvalidPageToken Code = "REQUEST_INVALID_PAGE_TOKEN"
	CodeInvalidOrderBy   Code = "REQUEST_INVALID_ORDER_BY"
	CodeSameOrigin       Code = "REQUEST_CROSS_ORIGIN"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// Auth errors
	CodeAuthInvalidCredentials Code = "AUTH_INVALID_CREDENTIALS"
	CodeAuthEmailInvalid       Code = "AUTH_EMAIL_INVALID"
	CodeAuthEmailTaken         Code = "AUTH_EMAIL_TAKEN"
	CodeAuthPasswordTooShort   Code = "AUTH_PASSWORD_TOO_SHORT"
	CodeAuthPasswordTooLong    Code = "AUTH_PASSWORD_TOO_LONG"
	CodeAuthSessionRequired    Code = "AUTH_SESSION_REQUIRED"
	CodeAuthSessionInvalid     Code = "AUTH_SESSION_INVALID"
	CodeAuthAdminRequired      Code = "AUTH_ADMIN_REQUIRED"
	CodeAuthPasskeyUnavailable Code = "AUTH_PASSKEY_UNAVAILABLE"
	CodeAuthPasskeyExpired     Code = "AUTH_PASSKEY_SESSION_EXPIRED"
	CodeAuthPasskeyInvalid     Code = "AUTH_PASSKEY_INVALID"

	// User and profile errors
	CodeUserInvalidRole     Code = "USER_INVALID_ROLE"
	CodeUserSelfDemotion    Code = "USER_SELF_DEMOTION"
	CodeProfileInvalidField Code = "PROFILE_INVALID_FIELD"

	// Catalog errors
	CodeProductInvalidField Code = "PRODUCT_INVALID_FIELD"
	CodeProductSlugTaken    Code = "PRODUCT_SLUG_TAKEN"

	// Cart errors
	CodeCartInvalidQuantity   Code = "CART_INVALID_QUANTITY"
	CodeCartInsufficientStock Code = "CART_INSUFFICIENT_STOCK"
	CodeCartCurrencyMismatch  Code = "CART_CURRENCY_MISMATCH"
	CodeCartEmpty             Code = "CART_EMPTY"

	// Order errors
	CodeOrderInvalidTransition  Code = "ORDER_INVALID_TRANSITION"
	CodeOrderAddressRequired    Code = "ORDER_ADDRESS_REQUIRED"
	CodeOrderProductUnavailable Code = "ORDER_PRODUCT_UNAVAILABLE"
	CodeOrderInvalidStatus      Code = "ORDER_INVALID_STATUS"

	// Media errors
	CodeMediaMissingFile     Code = "MEDIA_MISSING_FILE"
	CodeMediaTooLarge        Code = "MEDIA_TOO_LARGE"
	CodeMediaUnsupportedType Code = "MEDIA_UNSUPPORTED_TYPE"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, bad input
	case CodeInvalidBody,
		CodeInvalidFilter,
		CodeInvalidPageToken,
		CodeInvalidOrderBy,
		CodeAuthEmailInvalid,
		CodeAuthPasswordTooShort,
		CodeAuthPasswordTooLong,
		CodeAuthPasskeyInvalid,
		CodeUserInvalidRole,
		CodeProfileInvalidField,
		CodeProductInvalidField,
		CodeCartInvalidQuantity,
		CodeCartCurrencyMismatch,
		CodeOrderAddressRequired,
		CodeOrderInvalidStatus,
		CodeMediaMissingFile,
		CodeMediaUnsupportedType:
		return http.StatusBadRequest

	case CodeAuthInvalidCredentials,
		CodeAuthSessionRequired,
		CodeAuthSessionInvalid,
		CodeAuthPasskeyExpired:
		return http.StatusUnauthorized

	case CodeAuthAdminRequired,
		CodeSameOrigin,
		CodeUserSelfDemotion:
		return http.StatusForbidden

	case CodeNotFound:
		return http.StatusNotFound

	// Conflict - unique constraints and state that disallows the operation
	case CodeAuthEmailTaken,
		CodeProductSlugTaken,
		CodeCartInsufficientStock,
		CodeCartEmpty,
		CodeOrderInvalidTransition,
		CodeOrderProductUnavailable:
		return http.StatusConflict

	case CodeMediaTooLarge:
		return http.StatusRequestEntityTooLarge

	case CodeAuthPasskeyUnavailable:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}
