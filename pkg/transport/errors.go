package transport

import "fmt"

// StatusError reports a non-2xx response. URL never includes the query
// string so API keys stay out of logs.
type StatusError struct {
	Provider string
	URL      string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s returned HTTP %d", e.Provider, e.URL, e.Code)
}

// NetworkError wraps connection failures and timeouts.
type NetworkError struct {
	Provider string
	URL      string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: request to %s failed: %v", e.Provider, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError reports a 2xx body that was not the expected JSON.
type DecodeError struct {
	Provider string
	URL      string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: malformed body from %s: %v", e.Provider, e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
