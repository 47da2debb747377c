// Package service installs and drives the distributed processing service on
// cluster nodes.
//
// ScriptService runs operator supplied shell commands over SSH. It is the
// default provisioning.ServiceProvisioner for launch and the
// cluster.ServiceHooks for start, stop and destroy.
package service
