// Package cluster models a live sparkfleet cluster and the operations that
// act on one after launch.
//
// A [Cluster] is never stored. It is rebuilt from EC2 on every query: the
// instances of a cluster are the members of its sparkfleet-<name> security
// group, and the sparkfleet-role tag tells the master from the workers.
// [Classify] performs that reconstruction without side effects; [Discoverer]
// feeds it from a DescribeInstances query.
//
// # Operations
//
//   - [Discoverer.GetClusters] and [Discoverer.GetCluster] find clusters in a VPC
//   - [Converger.WaitForState] polls instances until they all reach one state
//   - [Manager] starts, stops, destroys and runs commands on a cluster, gated
//     by [StartCheck], [StopCheck], [RunCommandCheck] and [CopyFileCheck]
//
// Mutating calls are always issued once for the whole instance set, never
// once per instance, with the exception of ModifyInstanceAttribute which has
// no batch form.
package cluster
