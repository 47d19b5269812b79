package view

import "fmt"

// TransportError reports a failed node fetch (network or endpoint failure).
// It is recovered locally as an error placeholder and never aborts sibling
// rendering.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UnsupportedFormatError reports an unrecognized multipart kind or leaf
// content type. Recovered locally with a user-visible notice; not retried.
type UnsupportedFormatError struct {
	ContentType string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format: %s", e.ContentType)
}

// MalformedResponseError reports a payload whose shape disagrees with its
// declared content type (e.g. a non-JSON body claiming a multipart
// descriptor). Fails closed to the unsupported-format placeholder.
type MalformedResponseError struct {
	ContentType string
	Err         error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed %s response: %v", e.ContentType, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
