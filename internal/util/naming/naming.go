package naming

import (
	"fmt"
	"regexp"
	"strings"
)

// Prefix is the name of the shared base security group and the prefix of
// every cluster security group.
const Prefix = "sparkfleet"

var clusterNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{0,62}$`)

func BaseGroup() string {
	return Prefix
}

func ClusterGroup(cluster string) string {
	return fmt.Sprintf("%s-%s", Prefix, cluster)
}

// ClusterFromGroup extracts the cluster name from a cluster group name.
// It reports false for the base group and unrelated groups.
func ClusterFromGroup(group string) (string, bool) {
	name, ok := strings.CutPrefix(group, Prefix+"-")
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// Instance returns the Name tag value for an instance of the given role.
func Instance(cluster, role string) string {
	return fmt.Sprintf("%s-%s", cluster, role)
}

// ValidateCluster checks that a cluster name can be embedded in a group name.
func ValidateCluster(cluster string) error {
	if !clusterNamePattern.MatchString(cluster) {
		return fmt.Errorf("invalid cluster name %q: must start with a letter or digit and contain only letters, digits, '-' or '_' (max 63 characters)", cluster)
	}
	return nil
}
