// Package infrastructure provisions the network access rules of a cluster.
//
// Two security groups guard every cluster. The base group "sparkfleet" is
// shared by all clusters in a VPC and admits the launching client on SSH and
// the service UI ports. The cluster group "sparkfleet-<name>" admits all
// traffic from its own members. Both are created idempotently; duplicate rule
// responses from EC2 are ignored.
package infrastructure
