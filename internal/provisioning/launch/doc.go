// Package launch orchestrates a cluster launch.
//
// A launch runs the validation, network, infrastructure, image and compute
// phases in order, waits for every instance to run and hands the cluster to
// the service provisioner. Each phase registers compensations as it creates
// resources; any failure or interrupt unwinds them on a detached context.
package launch
