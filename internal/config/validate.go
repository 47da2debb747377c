package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/imamik/sparkfleet/internal/util/naming"
)

// ValidTenancies contains the EC2 placement tenancy values.
var ValidTenancies = map[string]bool{
	"default":   true,
	"dedicated": true,
	"host":      true,
}

// ValidShutdownBehaviors contains the instance-initiated shutdown behaviours.
var ValidShutdownBehaviors = map[string]bool{
	"stop":      true,
	"terminate": true,
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if c.ClusterName == "" {
		return fmt.Errorf("cluster name is required")
	}
	if err := naming.ValidateCluster(c.ClusterName); err != nil {
		return err
	}
	if c.Provider.EC2.Region == "" {
		return fmt.Errorf("region is required")
	}
	if (c.Provider.EC2.AccessKeyID == "") != (c.Provider.EC2.SecretAccessKey == "") {
		return fmt.Errorf("access_key_id and secret_access_key must be set together")
	}
	return nil
}

// ValidateLaunch checks the settings only launch needs.
func (c *Config) ValidateLaunch() error {
	if err := c.Validate(); err != nil {
		return err
	}

	ec2 := c.Provider.EC2
	var errs []error
	if ec2.AMI == "" {
		errs = append(errs, fmt.Errorf("ami is required"))
	}
	if ec2.KeyName == "" {
		errs = append(errs, fmt.Errorf("key_name is required"))
	}
	if ec2.InstanceType == "" {
		errs = append(errs, fmt.Errorf("instance_type is required"))
	}
	if c.Launch.NumWorkers < 1 {
		errs = append(errs, fmt.Errorf("num_workers must be at least 1, got %d", c.Launch.NumWorkers))
	}
	if ec2.SpotPrice < 0 {
		errs = append(errs, fmt.Errorf("spot_price must be positive, got %g", ec2.SpotPrice))
	}
	if ec2.Tenancy != "" && !ValidTenancies[ec2.Tenancy] {
		errs = append(errs, fmt.Errorf("invalid tenancy %q: must be one of %v", ec2.Tenancy, getMapKeys(ValidTenancies)))
	}
	if ec2.ShutdownBehavior != "" && !ValidShutdownBehaviors[ec2.ShutdownBehavior] {
		errs = append(errs, fmt.Errorf("invalid shutdown behavior %q: must be one of %v", ec2.ShutdownBehavior, getMapKeys(ValidShutdownBehaviors)))
	}
	if ec2.SubnetID != "" && ec2.VPCID == "" {
		errs = append(errs, fmt.Errorf("subnet_id requires vpc_id"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("launch validation failed: %w", err)
	}
	return nil
}

// ValidateSSH checks the settings commands that log into nodes need.
func (c *Config) ValidateSSH() error {
	ec2 := c.Provider.EC2
	if ec2.User == "" {
		return fmt.Errorf("user is required")
	}
	if ec2.IdentityFile == "" {
		return fmt.Errorf("identity_file is required")
	}
	info, err := os.Stat(ec2.IdentityFile)
	if err != nil {
		return fmt.Errorf("identity file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("identity file %s is a directory", ec2.IdentityFile)
	}
	return nil
}

// getMapKeys returns the keys of a map as a sorted slice.
func getMapKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
