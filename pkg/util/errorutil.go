package util

import (
	"errors"
	"fmt"
)

// Error codes for every failure the client core can surface.
const (
	CodeCredentialAbsent      = "CREDENTIAL_ABSENT"
	CodeCredentialMalformed   = "CREDENTIAL_MALFORMED"
	CodeCredentialExpired     = "CREDENTIAL_EXPIRED"
	CodeUnknownRole           = "UNKNOWN_ROLE"
	CodePermissionDenied      = "PERMISSION_DENIED"
	CodeDeviceBusy            = "DEVICE_BUSY"
	CodeNotConnected          = "NOT_CONNECTED"
	CodeTransportDropped      = "TRANSPORT_DROPPED"
	CodeAuthorizationRejected = "AUTHORIZATION_REJECTED"
	CodeRedirectRejected      = "REDIRECT_REJECTED"
	CodeBackendError          = "BACKEND_ERROR"
	CodeInternalError         = "INTERNAL_ERROR"
)

// ClientError standardizes application errors across the client core.
type ClientError struct {
	Code      string
	Message   string
	Retryable bool
	Err       error
}

func (e *ClientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// NewClientError constructs a ClientError.
func NewClientError(code, message string, retryable bool, err error) *ClientError {
	return &ClientError{Code: code, Message: message, Retryable: retryable, Err: err}
}

func NewCredentialMalformed(err error) error {
	return NewClientError(CodeCredentialMalformed, "credential failed to parse", false, err)
}

func NewCredentialExpired() error {
	return NewClientError(CodeCredentialExpired, "credential has expired", false, nil)
}

func NewUnknownRole(role string) error {
	return NewClientError(CodeUnknownRole, fmt.Sprintf("unknown role %q", role), false, nil)
}

func NewPermissionDenied(err error) error {
	return NewClientError(CodePermissionDenied, "microphone permission denied", false, err)
}

func NewDeviceBusy() error {
	return NewClientError(CodeDeviceBusy, "capture device already in use", false, nil)
}

func NewNotConnected() error {
	return NewClientError(CodeNotConnected, "transcription backend not connected", true, nil)
}

func NewTransportDropped(err error) error {
	return NewClientError(CodeTransportDropped, "transcription connection lost", true, err)
}

func NewAuthorizationRejected(message string) error {
	if message == "" {
		message = "transcription handshake rejected, reauthentication required"
	}
	return NewClientError(CodeAuthorizationRejected, message, false, nil)
}

func NewRedirectRejected(message string, err error) error {
	return NewClientError(CodeRedirectRejected, message, false, err)
}

func NewBackendError(status int, message string) error {
	return NewClientError(CodeBackendError, fmt.Sprintf("backend returned %d: %s", status, message), status >= 500, nil)
}

func NewInternalError(err error) error {
	return &ClientError{
		Code:    CodeInternalError,
		Message: "internal error",
		Err:     err,
	}
}

// ToClientError converts generic errors to ClientError.
func ToClientError(err error) *ClientError {
	if err == nil {
		return nil
	}
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr
	}
	return &ClientError{
		Code:    CodeInternalError,
		Message: "internal error",
		Err:     err,
	}
}

// CodeOf extracts the error code, or empty for nil.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	return ToClientError(err).Code
}
