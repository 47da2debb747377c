package cluster

import (
	"cmp"
	"slices"

	"github.com/imamik/sparkfleet/internal/util/tags"
)

// Classify builds a Cluster from raw instances using only their role tags.
// Instances without a recognised role are ignored. Workers are ordered by
// launch time, then id. Anything other than exactly one master and at least
// one worker is an InconsistentClusterError.
func Classify(name, region, vpcID string, instances []Instance) (*Cluster, error) {
	var masters, workers []Instance
	for _, inst := range instances {
		switch inst.Role {
		case tags.RoleMaster:
			masters = append(masters, inst)
		case tags.RoleWorker:
			workers = append(workers, inst)
		}
	}

	if len(masters) != 1 || len(workers) == 0 {
		return nil, &InconsistentClusterError{Name: name, Masters: len(masters), Workers: len(workers)}
	}

	slices.SortStableFunc(workers, func(a, b Instance) int {
		if c := a.LaunchTime.Compare(b.LaunchTime); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	return &Cluster{
		Name:    name,
		Region:  region,
		VPCID:   vpcID,
		Master:  masters[0],
		Workers: workers,
	}, nil
}
