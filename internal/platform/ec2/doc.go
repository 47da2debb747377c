// Package ec2 wraps the AWS EC2 API client used by sparkfleet.
//
// # Architecture
//
//   - client.go: client construction from the AWS credential chain
//   - instrumented.go: metrics and debug logging around every API call
//   - errors.go: classification of provider error codes
//   - helpers.go: tag, filter and pagination helpers
//
// Every call is a single blocking round-trip. Bulk state changes (start,
// stop, terminate, tag) are issued as one call across the whole instance set.
//
// # Error Classification
//
// Only two provider responses are ever swallowed by callers: a duplicate
// ingress rule (IsDuplicatePermission) and, on idempotent paths, an existing
// security group (IsDuplicateGroup). Everything else propagates.
package ec2
