// Package keygen generates the SSH key pair a cluster's nodes use to log
// into each other.
package keygen
