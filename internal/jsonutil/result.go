package jsonutil

// Result is the outcome of decoding model output: either a value or the
// reason it could not be produced.
type Result[T any] struct {
	value T
	err   error
}

// Ok wraps a successfully decoded value.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Err wraps a decode failure.
func Err[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// IsOk reports whether the result holds a value.
func (r Result[T]) IsOk() bool {
	return r.err == nil
}

// Error returns the failure reason, or nil.
func (r Result[T]) Error() error {
	return r.err
}

// Unwrap returns the value and the failure reason.
func (r Result[T]) Unwrap() (T, error) {
	return r.value, r.err
}

// Or returns the value, or fallback when the result is an error.
func (r Result[T]) Or(fallback T) T {
	if r.err != nil {
		return fallback
	}
	return r.value
}

// Then applies a validation step to an Ok result. Err results pass through.
func Then[T any](r Result[T], check func(T) (T, error)) Result[T] {
	if r.err != nil {
		return r
	}
	v, err := check(r.value)
	if err != nil {
		return Err[T](err)
	}
	return Ok(v)
}
