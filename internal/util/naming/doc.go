// Package naming provides consistent naming functions for sparkfleet resources.
//
// Security groups follow the pattern sparkfleet for the shared base group and
// sparkfleet-{cluster} for the per-cluster group. The cluster group name is the
// only record of which instances belong to which cluster, so the functions
// here must stay reversible.
package naming
