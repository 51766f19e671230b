package client

import (
	"fmt"
	"net/http"
	"regexp"
)

// StatusError reports an HTTP response with status >= 400.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// Retriable reports whether the status is worth retrying (429 or 5xx).
func (e *StatusError) Retriable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

var serviceKeyParam = regexp.MustCompile(`(?i)(ServiceKey=)[^&]*`)

// redact masks the API credential in a URL before it reaches logs or errors.
func redact(u string) string {
	return serviceKeyParam.ReplaceAllString(u, "${1}***")
}

// Redact is exported for callers that log request URLs themselves.
func Redact(u string) string {
	return redact(u)
}
