package fact

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds surfaced by a poll run. All but ErrNotify end the run;
// a failed notification is logged and the saved record stands.
var (
	ErrTransport  = errors.New("transport error")
	ErrHTTPStatus = errors.New("http status error")
	ErrDecode     = errors.New("decode error")
	ErrStore      = errors.New("store error")
	ErrNotify     = errors.New("notify error")
)

// StatusError reports a 4xx or 5xx upstream response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server responded with: %d %s", e.Code, http.StatusText(e.Code))
}

// Is lets errors.Is(err, ErrHTTPStatus) match any StatusError.
func (e *StatusError) Is(target error) bool {
	return target == ErrHTTPStatus
}

// CheckStatus fails on client (400-499) and server (500-599) error codes.
func CheckStatus(code int) error {
	if code >= 400 && code <= 599 {
		return &StatusError{Code: code}
	}
	return nil
}
