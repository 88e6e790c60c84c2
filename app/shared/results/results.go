// Package results defines the generic success/failure carrier returned by
// service operations. Business failures travel in Failure; unexpected errors
// travel in the separate error return.
package results

// OperationResult carries either a success payload or a business failure
// payload. At most one side is set.
type OperationResult[S any, F any] struct {
	Success *S
	Failure *F
}

func (r OperationResult[S, F]) IsSuccess() bool {
	return r.Success != nil
}

func (r OperationResult[S, F]) IsFailure() bool {
	return r.Failure != nil
}

// Ok builds a success result.
func Ok[S any, F any](s S) OperationResult[S, F] {
	return OperationResult[S, F]{Success: &s}
}

// Fail builds a business-failure result.
func Fail[S any, F any](f F) OperationResult[S, F] {
	return OperationResult[S, F]{Failure: &f}
}
