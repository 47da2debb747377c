package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validLaunchConfig() *Config {
	cfg := &Config{
		ClusterName: "test",
		Provider: ProviderConfig{EC2: EC2Config{
			AMI:     "ami-123",
			KeyName: "ops",
		}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing name", mutate: func(c *Config) { c.ClusterName = "" }, wantErr: "cluster name is required"},
		{name: "bad name", mutate: func(c *Config) { c.ClusterName = "has space" }, wantErr: "invalid cluster name"},
		{name: "missing region", mutate: func(c *Config) { c.Provider.EC2.Region = "" }, wantErr: "region is required"},
		{
			name:    "half credentials",
			mutate:  func(c *Config) { c.Provider.EC2.AccessKeyID = "AKIA" },
			wantErr: "must be set together",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validLaunchConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateLaunch(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "valid spot", mutate: func(c *Config) { c.Provider.EC2.SpotPrice = 0.1 }},
		{name: "missing ami", mutate: func(c *Config) { c.Provider.EC2.AMI = "" }, wantErr: "ami is required"},
		{name: "missing key", mutate: func(c *Config) { c.Provider.EC2.KeyName = "" }, wantErr: "key_name is required"},
		{name: "zero workers", mutate: func(c *Config) { c.Launch.NumWorkers = 0 }, wantErr: "num_workers must be at least 1"},
		{name: "negative spot", mutate: func(c *Config) { c.Provider.EC2.SpotPrice = -1 }, wantErr: "spot_price must be positive"},
		{name: "bad tenancy", mutate: func(c *Config) { c.Provider.EC2.Tenancy = "shared" }, wantErr: "invalid tenancy"},
		{name: "bad shutdown", mutate: func(c *Config) { c.Provider.EC2.ShutdownBehavior = "hibernate" }, wantErr: "invalid shutdown behavior"},
		{name: "subnet without vpc", mutate: func(c *Config) { c.Provider.EC2.SubnetID = "subnet-1" }, wantErr: "subnet_id requires vpc_id"},
		{name: "base validation runs", mutate: func(c *Config) { c.ClusterName = "" }, wantErr: "cluster name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validLaunchConfig()
			tt.mutate(cfg)
			err := cfg.ValidateLaunch()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateLaunch_ReportsAllProblems(t *testing.T) {
	t.Parallel()
	cfg := validLaunchConfig()
	cfg.Provider.EC2.AMI = ""
	cfg.Provider.EC2.KeyName = ""

	err := cfg.ValidateLaunch()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ami is required")
	assert.Contains(t, err.Error(), "key_name is required")
}

func TestValidateSSH(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	key := filepath.Join(dir, "id_rsa")
	require.NoError(t, os.WriteFile(key, []byte("key"), 0o600))

	cfg := validLaunchConfig()
	cfg.Provider.EC2.IdentityFile = key
	assert.NoError(t, cfg.ValidateSSH())

	cfg.Provider.EC2.IdentityFile = ""
	assert.ErrorContains(t, cfg.ValidateSSH(), "identity_file is required")

	cfg.Provider.EC2.IdentityFile = filepath.Join(dir, "missing")
	assert.ErrorContains(t, cfg.ValidateSSH(), "identity file")

	cfg.Provider.EC2.IdentityFile = dir
	assert.ErrorContains(t, cfg.ValidateSSH(), "is a directory")
}

func TestGetMapKeys_Sorted(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"dedicated", "default", "host"}, getMapKeys(ValidTenancies))
}
