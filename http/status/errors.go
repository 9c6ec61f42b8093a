package status

import (
	"errors"
)

// HTTPError is an error carrying the status code it must be reported with.
type HTTPError struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) error {
	return HTTPError{
		Code:    code,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

// CodeOf extracts the status code out of the error chain. Errors which carry no code are
// considered to be internal failures of the connector.
func CodeOf(err error) Code {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}

	return ConnectorInternal
}

var (
	ErrBadRequest           = NewError(BadRequest, "bad request")
	ErrTooLongRequestLine   = NewError(BadRequest, "start line is too long")
	ErrBadRequestLine       = NewError(BadRequest, "malformed request line")
	ErrBadStatusLine        = NewError(BadRequest, "malformed status line")
	ErrBadHeader            = NewError(BadRequest, "malformed header line")
	ErrInvalidHeader        = NewError(BadRequest, "header contains forbidden characters")
	ErrBadURI               = NewError(BadRequest, "request URI contains forbidden characters")
	ErrBadContentLength     = NewError(BadRequest, "invalid Content-Length value")
	ErrBadChunk             = NewError(BadRequest, "malformed chunk-encoded data")
	ErrUnsupportedProtocol  = NewError(HTTPVersionNotSupported, "HTTP version not supported")
	ErrMethodNotImplemented = NewError(NotImplemented, "request method is not supported")
	ErrTooManyHeaders       = NewError(HeaderFieldsTooLarge, "too many headers")
	ErrHeaderFieldsTooLarge = NewError(HeaderFieldsTooLarge, "too large headers section")
	ErrURITooLong           = NewError(RequestURITooLong, "request URI too long")
	ErrInternalServerError  = NewError(InternalServerError, "internal server error")
	ErrNotImplemented       = NewError(NotImplemented, "not implemented")
	ErrNotFound             = NewError(NotFound, "not found")
	ErrUnsupportedMediaType = NewError(UnsupportedMediaType, "unsupported media type")

	ErrConnectorConnection    = NewError(ConnectorConnection, "unable to connect")
	ErrConnectorCommunication = NewError(ConnectorCommunication, "communication with the peer failed")
	ErrConnectorInternal      = NewError(ConnectorInternal, "connector failure")
)
