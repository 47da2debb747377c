// Package ssh runs commands on and copies files to cluster nodes.
//
// Client talks to one host. Executor fans a command or an upload out to
// many hosts at once and implements cluster.RemoteExecutor.
//
// Host key verification is disabled by default: cluster nodes are created
// and destroyed on demand, so their host keys are never known in advance.
package ssh
