// Package provisioning provides shared types, interfaces, and orchestration for cluster launches.
//
// # Subpackages
//
//   - infrastructure/: Security groups and client address discovery
//   - image/: Block device planning for the launch image
//   - compute/: On-demand and spot acquisition, settling, and tagging
//   - launch/: The launch workflow and its rollback
//
// # Core Types
//
// Context carries configuration, state, the EC2 client, timeouts, and the observer.
// Phase defines a provisioning step with Name() and Provision() methods.
// State accumulates results from each phase (VPC, security groups, block devices, instance ids).
// Rollback is the compensation stack; phases push an undo action for every
// resource they acquire and the launch workflow unwinds it on failure.
package provisioning
