package music

// Outcome carries the result of a best-effort sub-fetch. A failed fetch keeps
// the zero Value (or a caller-chosen empty value) alongside Err, so degraded
// results stay observable instead of being swallowed.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Succeeded wraps a successful value.
func Succeeded[T any](v T) Outcome[T] { return Outcome[T]{Value: v} }

// Failed wraps an error with the empty value the caller should fall back to.
func Failed[T any](empty T, err error) Outcome[T] { return Outcome[T]{Value: empty, Err: err} }

// OK reports whether the fetch succeeded.
func (o Outcome[T]) OK() bool { return o.Err == nil }
