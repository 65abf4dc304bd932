// Package errors defines the typed error taxonomy used across the gateway,
// mapping each error kind to the OAuth 2.1 / RFC 6749 error code and HTTP
// status it should surface as.
package errors

import "fmt"

// Type identifies the class of an Error, matching the "error" field values
// defined by RFC 6749 section 5.2 and RFC 7591 section 3.2.2 wherever the
// gateway's behavior corresponds to one of those wire errors.
type Type string

const (
	ErrInvalidRequest       Type = "invalid_request"
	ErrInvalidClient        Type = "invalid_client"
	ErrInvalidGrant         Type = "invalid_grant"
	ErrInvalidScope         Type = "invalid_scope"
	ErrInvalidTarget        Type = "invalid_target"
	ErrUnauthorizedClient   Type = "unauthorized_client"
	ErrUnsupportedGrantType Type = "unsupported_grant_type"
	ErrAccessDenied         Type = "access_denied"
	ErrInvalidRedirectURI   Type = "invalid_redirect_uri"
	ErrInvalidClientMeta    Type = "invalid_client_metadata"
	ErrInvalidToken         Type = "invalid_token"
	ErrNotFound             Type = "not_found"
	ErrConflict             Type = "conflict"
	ErrServerError          Type = "server_error"
)

// Error is the gateway's internal error carrier. It is never serialized to
// the wire directly; handlers translate it into the RFC-shaped JSON error
// body and HTTP status via Code.
type Error struct {
	Type    Type
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Type, e.Message, e.Cause.Error())
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError builds an *Error of the given type.
func NewError(t Type, message string, cause error) *Error {
	return &Error{Type: t, Message: message, Cause: cause}
}

func NewInvalidRequestError(message string, cause error) *Error {
	return NewError(ErrInvalidRequest, message, cause)
}

func NewInvalidClientError(message string, cause error) *Error {
	return NewError(ErrInvalidClient, message, cause)
}

func NewInvalidGrantError(message string, cause error) *Error {
	return NewError(ErrInvalidGrant, message, cause)
}

func NewInvalidScopeError(message string, cause error) *Error {
	return NewError(ErrInvalidScope, message, cause)
}

func NewInvalidTargetError(message string, cause error) *Error {
	return NewError(ErrInvalidTarget, message, cause)
}

func NewUnauthorizedClientError(message string, cause error) *Error {
	return NewError(ErrUnauthorizedClient, message, cause)
}

func NewUnsupportedGrantTypeError(message string, cause error) *Error {
	return NewError(ErrUnsupportedGrantType, message, cause)
}

func NewAccessDeniedError(message string, cause error) *Error {
	return NewError(ErrAccessDenied, message, cause)
}

func NewInvalidRedirectURIError(message string, cause error) *Error {
	return NewError(ErrInvalidRedirectURI, message, cause)
}

func NewInvalidClientMetaError(message string, cause error) *Error {
	return NewError(ErrInvalidClientMeta, message, cause)
}

func NewInvalidTokenError(message string, cause error) *Error {
	return NewError(ErrInvalidToken, message, cause)
}

func NewNotFoundError(message string, cause error) *Error {
	return NewError(ErrNotFound, message, cause)
}

func NewConflictError(message string, cause error) *Error {
	return NewError(ErrConflict, message, cause)
}

func NewInternalError(message string, cause error) *Error {
	return NewError(ErrServerError, message, cause)
}

func isType(err error, t Type) bool {
	e, ok := err.(*Error)
	if !ok || e == nil {
		return false
	}
	return e.Type == t
}

func IsInvalidRequest(err error) bool     { return isType(err, ErrInvalidRequest) }
func IsInvalidClient(err error) bool      { return isType(err, ErrInvalidClient) }
func IsInvalidGrant(err error) bool       { return isType(err, ErrInvalidGrant) }
func IsInvalidScope(err error) bool       { return isType(err, ErrInvalidScope) }
func IsInvalidTarget(err error) bool      { return isType(err, ErrInvalidTarget) }
func IsUnauthorizedClient(err error) bool { return isType(err, ErrUnauthorizedClient) }
func IsAccessDenied(err error) bool       { return isType(err, ErrAccessDenied) }
func IsInvalidRedirectURI(err error) bool { return isType(err, ErrInvalidRedirectURI) }
func IsInvalidClientMeta(err error) bool  { return isType(err, ErrInvalidClientMeta) }
func IsInvalidToken(err error) bool       { return isType(err, ErrInvalidToken) }
func IsNotFound(err error) bool           { return isType(err, ErrNotFound) }
func IsConflict(err error) bool           { return isType(err, ErrConflict) }
func IsInternal(err error) bool           { return isType(err, ErrServerError) }

// Code maps an error to the HTTP status code the handler layer should
// respond with. Unknown error values (not *Error) map to 500.
func Code(err error) int {
	e, ok := err.(*Error)
	if !ok || e == nil {
		return 500
	}
	switch e.Type {
	case ErrInvalidRequest, ErrInvalidScope, ErrInvalidTarget, ErrUnsupportedGrantType, ErrInvalidClientMeta:
		return 400
	case ErrInvalidClient, ErrInvalidToken:
		return 401
	case ErrAccessDenied, ErrUnauthorizedClient:
		return 403
	case ErrNotFound:
		return 404
	case ErrConflict:
		return 409
	case ErrInvalidGrant, ErrInvalidRedirectURI:
		return 400
	default:
		return 500
	}
}
