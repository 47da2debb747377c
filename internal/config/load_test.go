package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
provider:
  ec2:
    region: eu-west-1
    vpc_id: vpc-123
    ami: ami-0abc
    instance_type: r5.xlarge
    key_name: ops
    identity_file: /tmp/ops.pem
    spot_price: 0.25
    tags:
      team: data
launch:
  num_workers: 4
services:
  install:
    - ./install.sh
`

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, t.TempDir(), sampleConfig)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "eu-west-1", cfg.Provider.EC2.Region)
	assert.Equal(t, "vpc-123", cfg.Provider.EC2.VPCID)
	assert.Equal(t, "r5.xlarge", cfg.Provider.EC2.InstanceType)
	assert.InDelta(t, 0.25, cfg.Provider.EC2.SpotPrice, 1e-9)
	assert.Equal(t, map[string]string{"team": "data"}, cfg.Provider.EC2.Tags)
	assert.Equal(t, 4, cfg.Launch.NumWorkers)
	assert.Equal(t, []string{"./install.sh"}, cfg.Services.Install)
	assert.True(t, cfg.Spot())
	assert.Equal(t, "spot", cfg.Strategy())
}

func TestLoadFile_Invalid(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, t.TempDir(), "provider: [unterminated")

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal yaml")
}

func TestLoad_ExplicitMissing(t *testing.T) {
	t.Parallel()
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_DefaultMissingAppliesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRegion, cfg.Provider.EC2.Region)
	assert.Equal(t, DefaultInstanceType, cfg.Provider.EC2.InstanceType)
	assert.Equal(t, DefaultUser, cfg.Provider.EC2.User)
	assert.Equal(t, DefaultNumWorkers, cfg.Launch.NumWorkers)
	assert.False(t, cfg.Spot())
	assert.Equal(t, "on-demand", cfg.Strategy())
}

func TestLoad_DefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sparkfleet"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sparkfleet", "config.yaml"), []byte(sampleConfig), 0o600))

	assert.Equal(t, filepath.Join(dir, "sparkfleet", "config.yaml"), DefaultPath())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.Provider.EC2.Region)
	assert.Equal(t, DefaultUser, cfg.Provider.EC2.User)
}
