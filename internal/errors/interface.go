package errors

// ErrorCode uniquely identifies an error condition across the agent.
type ErrorCode string

// Error is a domain error carrying a stable code, optional context data,
// and an optional wrapped cause.
type Error interface {
	error
	Code() ErrorCode
	WithMessage(msg string) Error
	WithData(data any) Error
	GetData() any
	Unwrap() error
}

// Factory creates domain errors. Packages hold one factory instance and
// construct their errors through it.
type Factory interface {
	New(code ErrorCode) Error
	Wrap(code ErrorCode, err error) Error
	WithMessage(code ErrorCode, msg string) Error
	WithData(code ErrorCode, data any) Error
}
