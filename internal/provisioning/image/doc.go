// Package image plans the block device mappings of launched instances.
//
// The root volume of an EBS-backed image is grown to at least 30 GiB on gp2.
// Twelve ephemeral slots are always appended; EC2 ignores slots the instance
// type has no instance store for.
package image
