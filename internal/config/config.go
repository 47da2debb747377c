package config

// Config holds the settings for one sparkfleet invocation.
type Config struct {
	// ClusterName is always supplied on the command line.
	ClusterName string `yaml:"-"`

	Provider ProviderConfig `yaml:"provider"`
	Launch   LaunchConfig   `yaml:"launch"`
	Services ServicesConfig `yaml:"services"`
}

// ProviderConfig groups provider specific settings.
type ProviderConfig struct {
	EC2 EC2Config `yaml:"ec2"`
}

// EC2Config describes where and how instances are launched.
type EC2Config struct {
	Region           string `yaml:"region"`
	VPCID            string `yaml:"vpc_id,omitempty"`
	SubnetID         string `yaml:"subnet_id,omitempty"`
	AvailabilityZone string `yaml:"availability_zone,omitempty"`

	AMI          string `yaml:"ami"`
	InstanceType string `yaml:"instance_type"`

	// KeyName is the EC2 key pair; IdentityFile is its private half on disk.
	KeyName      string `yaml:"key_name"`
	IdentityFile string `yaml:"identity_file"`
	User         string `yaml:"user"`

	InstanceProfileName string            `yaml:"instance_profile_name,omitempty"`
	PlacementGroup      string            `yaml:"placement_group,omitempty"`
	Tenancy             string            `yaml:"tenancy,omitempty"`
	EBSOptimized        bool              `yaml:"ebs_optimized,omitempty"`
	ShutdownBehavior    string            `yaml:"instance_initiated_shutdown_behavior,omitempty"`
	UserData            string            `yaml:"user_data,omitempty"`
	Tags                map[string]string `yaml:"tags,omitempty"`

	// SpotPrice switches launches to spot requests when non-zero.
	SpotPrice float64 `yaml:"spot_price,omitempty"`

	// KeepRootEncryption keeps the Encrypted flag of a resized root volume.
	KeepRootEncryption bool `yaml:"keep_root_encryption,omitempty"`

	// Static credentials. The AWS default chain is used when empty.
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty"`
}

// LaunchConfig holds launch-only settings.
type LaunchConfig struct {
	NumWorkers int  `yaml:"num_workers"`
	AssumeYes  bool `yaml:"assume_yes,omitempty"`
}

// ServicesConfig lists the shell commands the default service provisioner
// runs on every node.
type ServicesConfig struct {
	Install []string `yaml:"install,omitempty"`
	Start   []string `yaml:"start,omitempty"`
	Stop    []string `yaml:"stop,omitempty"`
}

// Spot reports whether instances are acquired through spot requests.
func (c *Config) Spot() bool {
	return c.Provider.EC2.SpotPrice > 0
}

// Strategy names the acquisition strategy for logs and metrics.
func (c *Config) Strategy() string {
	if c.Spot() {
		return "spot"
	}
	return "on-demand"
}
