package provisioning

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/sparkfleet/internal/config"
)

func validConfig() *config.Config {
	cfg := &config.Config{ClusterName: "spark"}
	cfg.ApplyDefaults()
	cfg.Provider.EC2.AMI = "ami-12345678"
	cfg.Provider.EC2.KeyName = "ops"
	cfg.Provider.EC2.IdentityFile = "/home/ops/.ssh/ops.pem"
	cfg.Launch.NumWorkers = 2
	return cfg
}

func TestValidationError(t *testing.T) {
	t.Parallel()
	ve := ValidationError{Field: "provider.ec2.tags", Message: "bad", Severity: "error"}

	assert.Equal(t, "[error] provider.ec2.tags: bad", ve.Error())
	assert.True(t, ve.IsError())
	assert.False(t, ValidationError{Severity: "warning"}.IsError())
}

func TestValidationPhase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(*config.Config)
		wantErr  string
		warnings int
	}{
		{
			name:   "valid",
			mutate: func(*config.Config) {},
		},
		{
			name:    "launch settings missing",
			mutate:  func(c *config.Config) { c.Provider.EC2.AMI = "" },
			wantErr: "ami is required",
		},
		{
			name:     "reserved tag",
			mutate:   func(c *config.Config) { c.Provider.EC2.Tags = map[string]string{"Name": "x", "team": "data"} },
			warnings: 1,
		},
		{
			name:     "no identity file",
			mutate:   func(c *config.Config) { c.Provider.EC2.IdentityFile = "" },
			warnings: 1,
		},
		{
			name: "placement group with host tenancy",
			mutate: func(c *config.Config) {
				c.Provider.EC2.PlacementGroup = "pg"
				c.Provider.EC2.Tenancy = "host"
			},
			wantErr: "placement groups cannot be combined with host tenancy",
		},
		{
			name: "spot with stop behaviour",
			mutate: func(c *config.Config) {
				c.Provider.EC2.SpotPrice = 0.1
				c.Provider.EC2.ShutdownBehavior = "stop"
			},
			wantErr: "one-time spot instances cannot be stopped",
		},
		{
			name:    "oversized user data",
			mutate:  func(c *config.Config) { c.Provider.EC2.UserData = strings.Repeat("x", 16*1024+1) },
			wantErr: "EC2 accepts at most 16384",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			ctx, observer := testContext(context.Background())
			ctx.Config = cfg

			err := NewValidationPhase().Provision(ctx)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			warnings := 0
			for _, e := range observer.events {
				if e.Type == EventValidationWarning {
					warnings++
				}
			}
			assert.Equal(t, tt.warnings, warnings)
		})
	}
}

func TestValidationPhase_Name(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "validation", NewValidationPhase().Name())
}
