// Package retry provides exponential backoff retry logic for transient failures.
//
// [WithExponentialBackoff] retries an operation with configurable max attempts,
// initial delay, and maximum delay. [Until] polls a readiness predicate with the
// same backoff, and [Poll] checks a condition at a fixed interval until a
// deadline. All three honour context cancellation.
package retry
