package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "error with cause",
			err: &Error{
				Type:    ErrInvalidRequest,
				Message: "test message",
				Cause:   errors.New("underlying error"),
			},
			want: "invalid_request: test message: underlying error",
		},
		{
			name: "error without cause",
			err: &Error{
				Type:    ErrInvalidClient,
				Message: "test message",
				Cause:   nil,
			},
			want: "invalid_client: test message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &Error{Type: ErrServerError, Message: "test message", Cause: cause}
	assert.Equal(t, cause, err.Unwrap())

	errNoCause := &Error{Type: ErrServerError, Message: "test message"}
	assert.Nil(t, errNoCause.Unwrap())
}

func TestNewErrorConstructors(t *testing.T) {
	cause := errors.New("cause")

	tests := []struct {
		name        string
		constructor func(string, error) *Error
		wantType    Type
	}{
		{"NewInvalidRequestError", NewInvalidRequestError, ErrInvalidRequest},
		{"NewInvalidClientError", NewInvalidClientError, ErrInvalidClient},
		{"NewInvalidGrantError", NewInvalidGrantError, ErrInvalidGrant},
		{"NewInvalidScopeError", NewInvalidScopeError, ErrInvalidScope},
		{"NewInvalidTargetError", NewInvalidTargetError, ErrInvalidTarget},
		{"NewUnauthorizedClientError", NewUnauthorizedClientError, ErrUnauthorizedClient},
		{"NewUnsupportedGrantTypeError", NewUnsupportedGrantTypeError, ErrUnsupportedGrantType},
		{"NewAccessDeniedError", NewAccessDeniedError, ErrAccessDenied},
		{"NewInvalidRedirectURIError", NewInvalidRedirectURIError, ErrInvalidRedirectURI},
		{"NewInvalidClientMetaError", NewInvalidClientMetaError, ErrInvalidClientMeta},
		{"NewInvalidTokenError", NewInvalidTokenError, ErrInvalidToken},
		{"NewNotFoundError", NewNotFoundError, ErrNotFound},
		{"NewConflictError", NewConflictError, ErrConflict},
		{"NewInternalError", NewInternalError, ErrServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.constructor("test message", cause)
			assert.Equal(t, tt.wantType, err.Type)
			assert.Equal(t, "test message", err.Message)
			assert.Equal(t, cause, err.Cause)
		})
	}
}

func TestErrorTypeCheckers(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		checker func(error) bool
		want    bool
	}{
		{"IsInvalidRequest matching", NewInvalidRequestError("test", nil), IsInvalidRequest, true},
		{"IsInvalidRequest non-matching", NewInvalidClientError("test", nil), IsInvalidRequest, false},
		{"IsInvalidRequest non-Error type", errors.New("regular error"), IsInvalidRequest, false},
		{"IsInvalidClient matching", NewInvalidClientError("test", nil), IsInvalidClient, true},
		{"IsInvalidGrant matching", NewInvalidGrantError("test", nil), IsInvalidGrant, true},
		{"IsInvalidToken matching", NewInvalidTokenError("test", nil), IsInvalidToken, true},
		{"IsInvalidToken non-matching", NewInvalidClientError("test", nil), IsInvalidToken, false},
		{"IsNotFound matching", NewNotFoundError("test", nil), IsNotFound, true},
		{"IsConflict matching", NewConflictError("test", nil), IsConflict, true},
		{"IsInternal matching", NewInternalError("test", nil), IsInternal, true},
		{"IsInternal with nil error", nil, IsInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.checker(tt.err))
		})
	}
}

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid request", NewInvalidRequestError("m", nil), 400},
		{"invalid client", NewInvalidClientError("m", nil), 401},
		{"invalid token", NewInvalidTokenError("m", nil), 401},
		{"access denied", NewAccessDeniedError("m", nil), 403},
		{"not found", NewNotFoundError("m", nil), 404},
		{"conflict", NewConflictError("m", nil), 409},
		{"server error", NewInternalError("m", nil), 500},
		{"unknown error type", errors.New("plain"), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Code(tt.err))
		})
	}
}
