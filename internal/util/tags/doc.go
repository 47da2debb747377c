// Package tags provides consistent tagging for sparkfleet instances.
//
// Every instance carries a role tag (master or worker) and a Name tag derived
// from the cluster name. Together with the cluster security group these are
// the only durable record of a cluster.
package tags
