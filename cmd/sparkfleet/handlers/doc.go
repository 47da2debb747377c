// Package handlers implements the business logic for CLI commands.
//
// Each handler loads configuration, builds the EC2 client and the remote
// executor, and delegates to internal/cluster or internal/provisioning.
// Construction goes through package-level factory variables so tests can
// substitute fakes.
package handlers
