package fakes

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"

	"github.com/imamik/sparkfleet/pkg/cloud"
)

var _ cloud.EC2API = (*EC2)(nil)

// EC2 simulates the subset of the EC2 API used by sparkfleet.
//
// Transitional instance states (pending, stopping, shutting-down) advance one
// step on every DescribeInstances call. Public addresses are only assigned
// once an instance reaches running, mimicking the launch race.
type EC2 struct {
	mu sync.Mutex

	Region     string
	DefaultVPC string

	Vpcs           map[string]*types.Vpc
	DNSHostnames   map[string]bool
	Subnets        map[string]*types.Subnet
	Images         map[string]*types.Image
	Instances      map[string]*types.Instance
	SecurityGroups map[string]*types.SecurityGroup
	SpotRequests   map[string]*types.SpotInstanceRequest

	// HiddenDescribes hides newly created instances from the next N
	// DescribeInstances calls.
	HiddenDescribes int

	// SpotOpenPolls keeps spot requests open for N describe calls before
	// they are granted.
	SpotOpenPolls int

	// SpotFailures maps a request index (0-based, in creation order) to the
	// status code the request fails with.
	SpotFailures map[int]string

	// Errors injects an error for every call of the named operation.
	Errors map[string]error

	calls       map[string]int
	order       []string
	nextID      int
	hiddenIDs   map[string]int
	spotOrder   []string
	spotPolls   map[string]int
	spotSpecs   map[string]*types.RequestSpotLaunchSpecification
	instanceSeq int
}

// NewEC2 returns a fake with one default VPC (DNS hostnames on) and one
// public subnet.
func NewEC2() *EC2 {
	f := &EC2{
		Region:         "us-east-1",
		DefaultVPC:     "vpc-default",
		Vpcs:           make(map[string]*types.Vpc),
		DNSHostnames:   make(map[string]bool),
		Subnets:        make(map[string]*types.Subnet),
		Images:         make(map[string]*types.Image),
		Instances:      make(map[string]*types.Instance),
		SecurityGroups: make(map[string]*types.SecurityGroup),
		SpotRequests:   make(map[string]*types.SpotInstanceRequest),
		SpotFailures:   make(map[int]string),
		Errors:         make(map[string]error),
		calls:          make(map[string]int),
		hiddenIDs:      make(map[string]int),
		spotPolls:      make(map[string]int),
		spotSpecs:      make(map[string]*types.RequestSpotLaunchSpecification),
	}
	f.AddVPC("vpc-default", true, true)
	f.AddSubnet("subnet-public", "vpc-default", true)
	return f
}

// AddVPC registers a VPC.
func (f *EC2) AddVPC(id string, isDefault, dnsHostnames bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Vpcs[id] = &types.Vpc{VpcId: aws.String(id), IsDefault: aws.Bool(isDefault)}
	f.DNSHostnames[id] = dnsHostnames
	if isDefault {
		f.DefaultVPC = id
	}
}

// AddSubnet registers a subnet in a VPC.
func (f *EC2) AddSubnet(id, vpcID string, mapPublicIP bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Subnets[id] = &types.Subnet{
		SubnetId:            aws.String(id),
		VpcId:               aws.String(vpcID),
		MapPublicIpOnLaunch: aws.Bool(mapPublicIP),
	}
}

// AddEBSImage registers an EBS-backed image with the given root volume size.
func (f *EC2) AddEBSImage(id string, rootSizeGB int32, encrypted bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Images[id] = &types.Image{
		ImageId:        aws.String(id),
		RootDeviceName: aws.String("/dev/xvda"),
		RootDeviceType: types.DeviceTypeEbs,
		BlockDeviceMappings: []types.BlockDeviceMapping{{
			DeviceName: aws.String("/dev/xvda"),
			Ebs: &types.EbsBlockDevice{
				VolumeSize:          aws.Int32(rootSizeGB),
				VolumeType:          types.VolumeTypeStandard,
				Encrypted:           aws.Bool(encrypted),
				DeleteOnTermination: aws.Bool(true),
				SnapshotId:          aws.String("snap-" + id),
			},
		}},
	}
}

// AddInstanceStoreImage registers an instance-store-backed image.
func (f *EC2) AddInstanceStoreImage(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Images[id] = &types.Image{
		ImageId:        aws.String(id),
		RootDeviceName: aws.String("/dev/sda1"),
		RootDeviceType: types.DeviceTypeInstanceStore,
	}
}

// AddInstance registers an existing instance directly, bypassing RunInstances.
func (f *EC2) AddInstance(inst types.Instance) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := aws.ToString(inst.InstanceId)
	f.Instances[id] = &inst
	f.order = append(f.order, id)
}

// SetInstanceState forces the state of an instance.
func (f *EC2) SetInstanceState(id string, state types.InstanceStateName) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if inst, ok := f.Instances[id]; ok {
		setState(inst, state)
	}
}

// CallCount returns how many times the named operation was called.
func (f *EC2) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// MutatingCalls returns the total number of state-changing calls.
func (f *EC2) MutatingCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for op, n := range f.calls {
		if !strings.HasPrefix(op, "Describe") {
			total += n
		}
	}
	return total
}

// LiveInstanceIDs returns ids of instances that are not terminated or shutting down.
func (f *EC2) LiveInstanceIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for _, id := range f.order {
		switch f.Instances[id].State.Name {
		case types.InstanceStateNameTerminated, types.InstanceStateNameShuttingDown:
		default:
			ids = append(ids, id)
		}
	}
	return ids
}

// GroupByName returns a security group by name, or nil.
func (f *EC2) GroupByName(name string) *types.SecurityGroup {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.SecurityGroups {
		if aws.ToString(g.GroupName) == name {
			return g
		}
	}
	return nil
}

func (f *EC2) record(op string) error {
	f.calls[op]++
	if err, ok := f.Errors[op]; ok && err != nil {
		return err
	}
	return nil
}

func (f *EC2) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%08x", prefix, f.nextID)
}

// APIError builds a provider error carrying the given code.
func APIError(code, msg string) error {
	return &smithy.GenericAPIError{Code: code, Message: msg, Fault: smithy.FaultClient}
}

// RunInstances implements cloud.InstanceClient.
func (f *EC2) RunInstances(_ context.Context, in *ec2.RunInstancesInput, _ ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("RunInstances"); err != nil {
		return nil, err
	}
	if _, ok := f.Images[aws.ToString(in.ImageId)]; !ok {
		return nil, APIError("InvalidAMIID.NotFound", "The image id does not exist")
	}
	subnetID := aws.ToString(in.SubnetId)
	if subnetID == "" {
		subnetID = f.defaultSubnet()
	}
	count := int(aws.ToInt32(in.MaxCount))
	out := &ec2.RunInstancesOutput{}
	for range count {
		inst := f.launch(subnetID, in.SecurityGroupIds, in.ImageId)
		out.Instances = append(out.Instances, *inst)
	}
	return out, nil
}

func (f *EC2) defaultSubnet() string {
	for id, s := range f.Subnets {
		if aws.ToString(s.VpcId) == f.DefaultVPC {
			return id
		}
	}
	return ""
}

func (f *EC2) launch(subnetID string, groupIDs []string, imageID *string) *types.Instance {
	id := f.id("i")
	f.instanceSeq++
	vpcID := ""
	if s, ok := f.Subnets[subnetID]; ok {
		vpcID = aws.ToString(s.VpcId)
	}
	var groups []types.GroupIdentifier
	for _, gid := range groupIDs {
		g, ok := f.SecurityGroups[gid]
		if !ok {
			continue
		}
		groups = append(groups, types.GroupIdentifier{GroupId: g.GroupId, GroupName: g.GroupName})
	}
	inst := &types.Instance{
		InstanceId:       aws.String(id),
		ImageId:          imageID,
		SubnetId:         aws.String(subnetID),
		VpcId:            aws.String(vpcID),
		SecurityGroups:   groups,
		PrivateIpAddress: aws.String(fmt.Sprintf("10.0.0.%d", f.instanceSeq)),
		PrivateDnsName:   aws.String(fmt.Sprintf("ip-10-0-0-%d.ec2.internal", f.instanceSeq)),
	}
	setState(inst, types.InstanceStateNamePending)
	f.Instances[id] = inst
	f.order = append(f.order, id)
	if f.HiddenDescribes > 0 {
		f.hiddenIDs[id] = f.HiddenDescribes
	}
	return inst
}

func setState(inst *types.Instance, state types.InstanceStateName) {
	inst.State = &types.InstanceState{Name: state}
	if state == types.InstanceStateNameRunning {
		n := strings.TrimPrefix(aws.ToString(inst.PrivateIpAddress), "10.0.0.")
		inst.PublicIpAddress = aws.String("54.0.0." + n)
		inst.PublicDnsName = aws.String("ec2-54-0-0-" + n + ".compute-1.amazonaws.com")
	} else {
		inst.PublicIpAddress = nil
		inst.PublicDnsName = aws.String("")
	}
}

func advance(inst *types.Instance) {
	switch inst.State.Name {
	case types.InstanceStateNamePending:
		setState(inst, types.InstanceStateNameRunning)
	case types.InstanceStateNameStopping:
		setState(inst, types.InstanceStateNameStopped)
	case types.InstanceStateNameShuttingDown:
		setState(inst, types.InstanceStateNameTerminated)
	}
}

// DescribeInstances implements cloud.InstanceClient.
func (f *EC2) DescribeInstances(_ context.Context, in *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DescribeInstances"); err != nil {
		return nil, err
	}
	res := types.Reservation{}
	for _, id := range f.order {
		inst := f.Instances[id]
		if n := f.hiddenIDs[id]; n > 0 {
			f.hiddenIDs[id] = n - 1
			continue
		}
		if len(in.InstanceIds) > 0 && !slices.Contains(in.InstanceIds, id) {
			continue
		}
		if !instanceMatches(inst, in.Filters) {
			continue
		}
		advance(inst)
		res.Instances = append(res.Instances, *inst)
	}
	out := &ec2.DescribeInstancesOutput{}
	if len(res.Instances) > 0 {
		out.Reservations = []types.Reservation{res}
	}
	return out, nil
}

func instanceMatches(inst *types.Instance, filters []types.Filter) bool {
	for _, flt := range filters {
		var ok bool
		switch aws.ToString(flt.Name) {
		case "instance.group-name":
			for _, g := range inst.SecurityGroups {
				if slices.Contains(flt.Values, aws.ToString(g.GroupName)) {
					ok = true
				}
			}
		case "vpc-id":
			ok = slices.Contains(flt.Values, aws.ToString(inst.VpcId))
		case "instance-state-name":
			ok = slices.Contains(flt.Values, string(inst.State.Name))
		default:
			ok = true
		}
		if !ok {
			return false
		}
	}
	return true
}

// CreateTags implements cloud.InstanceClient.
func (f *EC2) CreateTags(_ context.Context, in *ec2.CreateTagsInput, _ ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateTags"); err != nil {
		return nil, err
	}
	for _, id := range in.Resources {
		inst, ok := f.Instances[id]
		if !ok {
			return nil, APIError("InvalidInstanceID.NotFound", "instance "+id+" does not exist")
		}
		for _, tag := range in.Tags {
			inst.Tags = upsertTag(inst.Tags, tag)
		}
	}
	return &ec2.CreateTagsOutput{}, nil
}

func upsertTag(tags []types.Tag, tag types.Tag) []types.Tag {
	for i, t := range tags {
		if aws.ToString(t.Key) == aws.ToString(tag.Key) {
			tags[i].Value = tag.Value
			return tags
		}
	}
	return append(tags, tag)
}

// TerminateInstances implements cloud.InstanceClient.
func (f *EC2) TerminateInstances(_ context.Context, in *ec2.TerminateInstancesInput, _ ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("TerminateInstances"); err != nil {
		return nil, err
	}
	for _, id := range in.InstanceIds {
		if inst, ok := f.Instances[id]; ok && inst.State.Name != types.InstanceStateNameTerminated {
			setState(inst, types.InstanceStateNameShuttingDown)
		}
	}
	return &ec2.TerminateInstancesOutput{}, nil
}

// StartInstances implements cloud.InstanceClient.
func (f *EC2) StartInstances(_ context.Context, in *ec2.StartInstancesInput, _ ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("StartInstances"); err != nil {
		return nil, err
	}
	for _, id := range in.InstanceIds {
		if inst, ok := f.Instances[id]; ok && inst.State.Name == types.InstanceStateNameStopped {
			setState(inst, types.InstanceStateNamePending)
		}
	}
	return &ec2.StartInstancesOutput{}, nil
}

// StopInstances implements cloud.InstanceClient.
func (f *EC2) StopInstances(_ context.Context, in *ec2.StopInstancesInput, _ ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("StopInstances"); err != nil {
		return nil, err
	}
	for _, id := range in.InstanceIds {
		if inst, ok := f.Instances[id]; ok && inst.State.Name == types.InstanceStateNameRunning {
			setState(inst, types.InstanceStateNameStopping)
		}
	}
	return &ec2.StopInstancesOutput{}, nil
}

// ModifyInstanceAttribute implements cloud.InstanceClient. Only Groups is supported.
func (f *EC2) ModifyInstanceAttribute(_ context.Context, in *ec2.ModifyInstanceAttributeInput, _ ...func(*ec2.Options)) (*ec2.ModifyInstanceAttributeOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ModifyInstanceAttribute"); err != nil {
		return nil, err
	}
	inst, ok := f.Instances[aws.ToString(in.InstanceId)]
	if !ok {
		return nil, APIError("InvalidInstanceID.NotFound", "instance does not exist")
	}
	if in.Groups != nil {
		var groups []types.GroupIdentifier
		for _, gid := range in.Groups {
			g, ok := f.SecurityGroups[gid]
			if !ok {
				return nil, APIError("InvalidGroup.NotFound", "group "+gid+" does not exist")
			}
			groups = append(groups, types.GroupIdentifier{GroupId: g.GroupId, GroupName: g.GroupName})
		}
		inst.SecurityGroups = groups
	}
	return &ec2.ModifyInstanceAttributeOutput{}, nil
}

// DescribeSecurityGroups implements cloud.SecurityGroupClient.
func (f *EC2) DescribeSecurityGroups(_ context.Context, in *ec2.DescribeSecurityGroupsInput, _ ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DescribeSecurityGroups"); err != nil {
		return nil, err
	}
	out := &ec2.DescribeSecurityGroupsOutput{}
	for _, g := range f.SecurityGroups {
		if len(in.GroupIds) > 0 && !slices.Contains(in.GroupIds, aws.ToString(g.GroupId)) {
			continue
		}
		match := true
		for _, flt := range in.Filters {
			switch aws.ToString(flt.Name) {
			case "group-name":
				match = match && slices.Contains(flt.Values, aws.ToString(g.GroupName))
			case "vpc-id":
				match = match && slices.Contains(flt.Values, aws.ToString(g.VpcId))
			}
		}
		if match {
			out.SecurityGroups = append(out.SecurityGroups, *g)
		}
	}
	return out, nil
}

// CreateSecurityGroup implements cloud.SecurityGroupClient.
func (f *EC2) CreateSecurityGroup(_ context.Context, in *ec2.CreateSecurityGroupInput, _ ...func(*ec2.Options)) (*ec2.CreateSecurityGroupOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateSecurityGroup"); err != nil {
		return nil, err
	}
	for _, g := range f.SecurityGroups {
		if aws.ToString(g.GroupName) == aws.ToString(in.GroupName) && aws.ToString(g.VpcId) == aws.ToString(in.VpcId) {
			return nil, APIError("InvalidGroup.Duplicate", "The security group '"+aws.ToString(in.GroupName)+"' already exists")
		}
	}
	id := f.id("sg")
	f.SecurityGroups[id] = &types.SecurityGroup{
		GroupId:     aws.String(id),
		GroupName:   in.GroupName,
		Description: in.Description,
		VpcId:       in.VpcId,
	}
	return &ec2.CreateSecurityGroupOutput{GroupId: aws.String(id)}, nil
}

// AuthorizeSecurityGroupIngress implements cloud.SecurityGroupClient.
func (f *EC2) AuthorizeSecurityGroupIngress(_ context.Context, in *ec2.AuthorizeSecurityGroupIngressInput, _ ...func(*ec2.Options)) (*ec2.AuthorizeSecurityGroupIngressOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("AuthorizeSecurityGroupIngress"); err != nil {
		return nil, err
	}
	g, ok := f.SecurityGroups[aws.ToString(in.GroupId)]
	if !ok {
		return nil, APIError("InvalidGroup.NotFound", "group does not exist")
	}
	perms := in.IpPermissions
	if len(perms) == 0 {
		perms = []types.IpPermission{{
			IpProtocol: in.IpProtocol,
			FromPort:   in.FromPort,
			ToPort:     in.ToPort,
			IpRanges:   []types.IpRange{{CidrIp: in.CidrIp}},
		}}
	}
	for _, p := range perms {
		key := permissionKey(p)
		for _, existing := range g.IpPermissions {
			if permissionKey(existing) == key {
				return nil, APIError("InvalidPermission.Duplicate", "the specified rule already exists")
			}
		}
	}
	g.IpPermissions = append(g.IpPermissions, perms...)
	return &ec2.AuthorizeSecurityGroupIngressOutput{Return: aws.Bool(true)}, nil
}

func permissionKey(p types.IpPermission) string {
	var sources []string
	for _, r := range p.IpRanges {
		sources = append(sources, aws.ToString(r.CidrIp))
	}
	for _, pair := range p.UserIdGroupPairs {
		sources = append(sources, aws.ToString(pair.GroupId))
	}
	return fmt.Sprintf("%s/%d/%d/%s", aws.ToString(p.IpProtocol), aws.ToInt32(p.FromPort), aws.ToInt32(p.ToPort), strings.Join(sources, ","))
}

// DeleteSecurityGroup implements cloud.SecurityGroupClient.
func (f *EC2) DeleteSecurityGroup(_ context.Context, in *ec2.DeleteSecurityGroupInput, _ ...func(*ec2.Options)) (*ec2.DeleteSecurityGroupOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteSecurityGroup"); err != nil {
		return nil, err
	}
	id := aws.ToString(in.GroupId)
	if _, ok := f.SecurityGroups[id]; !ok {
		return nil, APIError("InvalidGroup.NotFound", "group does not exist")
	}
	for _, inst := range f.Instances {
		if inst.State.Name == types.InstanceStateNameTerminated {
			continue
		}
		for _, g := range inst.SecurityGroups {
			if aws.ToString(g.GroupId) == id {
				return nil, APIError("DependencyViolation", "resource "+id+" has a dependent object")
			}
		}
	}
	delete(f.SecurityGroups, id)
	return &ec2.DeleteSecurityGroupOutput{}, nil
}

// RequestSpotInstances implements cloud.SpotClient.
func (f *EC2) RequestSpotInstances(_ context.Context, in *ec2.RequestSpotInstancesInput, _ ...func(*ec2.Options)) (*ec2.RequestSpotInstancesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("RequestSpotInstances"); err != nil {
		return nil, err
	}
	out := &ec2.RequestSpotInstancesOutput{}
	for range int(aws.ToInt32(in.InstanceCount)) {
		id := f.id("sir")
		req := &types.SpotInstanceRequest{
			SpotInstanceRequestId: aws.String(id),
			SpotPrice:             in.SpotPrice,
			State:                 types.SpotInstanceStateOpen,
			Status:                &types.SpotInstanceStatus{Code: aws.String("pending-evaluation")},
		}
		f.SpotRequests[id] = req
		f.spotOrder = append(f.spotOrder, id)
		f.spotSpecs[id] = in.LaunchSpecification
		out.SpotInstanceRequests = append(out.SpotInstanceRequests, *req)
	}
	return out, nil
}

// DescribeSpotInstanceRequests implements cloud.SpotClient.
func (f *EC2) DescribeSpotInstanceRequests(_ context.Context, in *ec2.DescribeSpotInstanceRequestsInput, _ ...func(*ec2.Options)) (*ec2.DescribeSpotInstanceRequestsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DescribeSpotInstanceRequests"); err != nil {
		return nil, err
	}
	out := &ec2.DescribeSpotInstanceRequestsOutput{}
	for idx, id := range f.spotOrder {
		if len(in.SpotInstanceRequestIds) > 0 && !slices.Contains(in.SpotInstanceRequestIds, id) {
			continue
		}
		req := f.SpotRequests[id]
		if req.State == types.SpotInstanceStateOpen {
			f.spotPolls[id]++
			if f.spotPolls[id] > f.SpotOpenPolls {
				f.settleSpot(idx, id, req)
			}
		}
		out.SpotInstanceRequests = append(out.SpotInstanceRequests, *req)
	}
	return out, nil
}

func (f *EC2) settleSpot(idx int, id string, req *types.SpotInstanceRequest) {
	if code, ok := f.SpotFailures[idx]; ok {
		req.State = types.SpotInstanceStateFailed
		req.Status = &types.SpotInstanceStatus{Code: aws.String(code)}
		return
	}
	spec := f.spotSpecs[id]
	subnetID := f.defaultSubnet()
	var groupIDs []string
	var imageID *string
	if spec != nil {
		if spec.SubnetId != nil {
			subnetID = aws.ToString(spec.SubnetId)
		}
		groupIDs = spec.SecurityGroupIds
		imageID = spec.ImageId
	}
	inst := f.launch(subnetID, groupIDs, imageID)
	req.State = types.SpotInstanceStateActive
	req.Status = &types.SpotInstanceStatus{Code: aws.String("fulfilled")}
	req.InstanceId = inst.InstanceId
}

// CancelSpotInstanceRequests implements cloud.SpotClient.
func (f *EC2) CancelSpotInstanceRequests(_ context.Context, in *ec2.CancelSpotInstanceRequestsInput, _ ...func(*ec2.Options)) (*ec2.CancelSpotInstanceRequestsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CancelSpotInstanceRequests"); err != nil {
		return nil, err
	}
	for _, id := range in.SpotInstanceRequestIds {
		if req, ok := f.SpotRequests[id]; ok && req.State == types.SpotInstanceStateOpen {
			req.State = types.SpotInstanceStateCancelled
		}
	}
	return &ec2.CancelSpotInstanceRequestsOutput{}, nil
}

// DescribeImages implements cloud.ImageClient.
func (f *EC2) DescribeImages(_ context.Context, in *ec2.DescribeImagesInput, _ ...func(*ec2.Options)) (*ec2.DescribeImagesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DescribeImages"); err != nil {
		return nil, err
	}
	out := &ec2.DescribeImagesOutput{}
	for _, id := range in.ImageIds {
		img, ok := f.Images[id]
		if !ok {
			return nil, APIError("InvalidAMIID.NotFound", "The image id '["+id+"]' does not exist")
		}
		cp := *img
		cp.BlockDeviceMappings = make([]types.BlockDeviceMapping, len(img.BlockDeviceMappings))
		for i, m := range img.BlockDeviceMappings {
			cp.BlockDeviceMappings[i] = m
			if m.Ebs != nil {
				ebs := *m.Ebs
				cp.BlockDeviceMappings[i].Ebs = &ebs
			}
		}
		out.Images = append(out.Images, cp)
	}
	return out, nil
}

// DescribeVpcs implements cloud.NetworkClient.
func (f *EC2) DescribeVpcs(_ context.Context, in *ec2.DescribeVpcsInput, _ ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DescribeVpcs"); err != nil {
		return nil, err
	}
	out := &ec2.DescribeVpcsOutput{}
	for _, v := range f.Vpcs {
		match := true
		for _, flt := range in.Filters {
			if aws.ToString(flt.Name) == "isDefault" {
				match = match && slices.Contains(flt.Values, fmt.Sprint(aws.ToBool(v.IsDefault)))
			}
		}
		if len(in.VpcIds) > 0 && !slices.Contains(in.VpcIds, aws.ToString(v.VpcId)) {
			match = false
		}
		if match {
			out.Vpcs = append(out.Vpcs, *v)
		}
	}
	return out, nil
}

// DescribeVpcAttribute implements cloud.NetworkClient.
func (f *EC2) DescribeVpcAttribute(_ context.Context, in *ec2.DescribeVpcAttributeInput, _ ...func(*ec2.Options)) (*ec2.DescribeVpcAttributeOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DescribeVpcAttribute"); err != nil {
		return nil, err
	}
	id := aws.ToString(in.VpcId)
	if _, ok := f.Vpcs[id]; !ok {
		return nil, APIError("InvalidVpcID.NotFound", "The vpc ID '"+id+"' does not exist")
	}
	out := &ec2.DescribeVpcAttributeOutput{VpcId: in.VpcId}
	if in.Attribute == types.VpcAttributeNameEnableDnsHostnames {
		out.EnableDnsHostnames = &types.AttributeBooleanValue{Value: aws.Bool(f.DNSHostnames[id])}
	}
	return out, nil
}

// DescribeSubnets implements cloud.NetworkClient.
func (f *EC2) DescribeSubnets(_ context.Context, in *ec2.DescribeSubnetsInput, _ ...func(*ec2.Options)) (*ec2.DescribeSubnetsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DescribeSubnets"); err != nil {
		return nil, err
	}
	out := &ec2.DescribeSubnetsOutput{}
	for _, id := range in.SubnetIds {
		s, ok := f.Subnets[id]
		if !ok {
			return nil, APIError("InvalidSubnetID.NotFound", "The subnet ID '"+id+"' does not exist")
		}
		out.Subnets = append(out.Subnets, *s)
	}
	return out, nil
}
