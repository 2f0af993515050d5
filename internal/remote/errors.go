package remote

import "fmt"

// NetworkError indicates the request never produced a usable HTTP response.
type NetworkError struct {
	URL     string
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Message, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// StatusError indicates the server answered but the response is unusable
// (non-2xx status or empty body).
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d: %s", e.URL, e.StatusCode, e.Body)
}
