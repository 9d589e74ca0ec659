package shein

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated means no credential is stored. It is the only error
// Sync returns hard; everything else is collected into diagnostics.
var ErrUnauthenticated = errors.New("shein: not authenticated (no stored credential)")

// TransportError wraps a network or proxy failure reaching the platform.
type TransportError struct {
	Path string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("shein: transport error on %s: %v", e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteProtocolError means the platform answered, but not with a success
// envelope: a non-"0" code, or a body that is not JSON at all. RawPreview is
// truncated so diagnostics stay loggable.
type RemoteProtocolError struct {
	Path       string
	Code       string
	Msg        string
	HTTPStatus int
	RawPreview string
}

func (e *RemoteProtocolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("shein: %s returned code %q (%s)", e.Path, e.Code, e.Msg)
	}
	return fmt.Sprintf("shein: %s returned non-JSON body (http %d)", e.Path, e.HTTPStatus)
}
