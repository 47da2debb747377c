package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoot(t *testing.T) {
	cmd := Root()

	require.NotNil(t, cmd)
	assert.Equal(t, "sparkfleet", cmd.Use)
	assert.Equal(t, "Launch and manage master/worker clusters on EC2", cmd.Short)
	assert.True(t, cmd.SilenceUsage)
}

func TestRoot_HasSubcommands(t *testing.T) {
	cmd := Root()

	expectedSubcommands := []string{
		"launch",
		"describe",
		"start",
		"stop",
		"destroy",
		"run-command",
		"copy-file",
		"version",
	}

	subcommands := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subcommands[sub.Name()] = true
	}

	for _, expected := range expectedSubcommands {
		assert.True(t, subcommands[expected], "Expected subcommand %s not found", expected)
	}
	assert.Len(t, cmd.Commands(), len(expectedSubcommands))
}

func TestRoot_PersistentFlags(t *testing.T) {
	cmd := Root()

	for _, name := range []string{"config", "region", "vpc-id", "verbose", "metrics-file"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing flag %s", name)
	}
	assert.Equal(t, "c", cmd.PersistentFlags().Lookup("config").Shorthand)
	assert.Equal(t, "v", cmd.PersistentFlags().Lookup("verbose").Shorthand)
}

func TestSubcommandArgs(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		valid bool
	}{
		{"launch", []string{"spark"}, true},
		{"launch", nil, false},
		{"launch", []string{"a", "b"}, false},
		{"describe", nil, true},
		{"describe", []string{"a", "b"}, true},
		{"start", []string{"spark"}, true},
		{"stop", nil, false},
		{"destroy", []string{"spark"}, true},
		{"run-command", []string{"spark", "uptime"}, true},
		{"run-command", []string{"spark"}, false},
		{"copy-file", []string{"spark", "a", "b"}, true},
		{"copy-file", []string{"spark", "a"}, false},
	}

	root := Root()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, _, err := root.Find([]string{tt.name})
			require.NoError(t, err)
			if cmd.Args == nil {
				assert.True(t, tt.valid)
				return
			}
			err = cmd.Args(cmd, tt.args)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLaunchFlags(t *testing.T) {
	cmd := Launch(nil)

	require.NoError(t, cmd.ParseFlags([]string{"-n", "4", "--spot-price", "0.12", "-y", "--ami", "ami-1"}))

	workers, err := cmd.Flags().GetInt("workers")
	require.NoError(t, err)
	assert.Equal(t, 4, workers)
	price, err := cmd.Flags().GetFloat64("spot-price")
	require.NoError(t, err)
	assert.InDelta(t, 0.12, price, 1e-9)
	yes, err := cmd.Flags().GetBool("assume-yes")
	require.NoError(t, err)
	assert.True(t, yes)
}

func TestDescribeFlags(t *testing.T) {
	cmd := Describe(nil)

	flag := cmd.Flags().Lookup("output")
	require.NotNil(t, flag)
	assert.Equal(t, "text", flag.DefValue)
	assert.Equal(t, "o", flag.Shorthand)
}

func TestRemoteFlags(t *testing.T) {
	assert.NotNil(t, RunCommand(nil).Flags().Lookup("master-only"))
	assert.NotNil(t, CopyFile(nil).Flags().Lookup("master-only"))
	assert.NotNil(t, Destroy(nil).Flags().Lookup("assume-yes"))
}

func TestRoot_UnknownCommand(t *testing.T) {
	cmd := Root()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"teleport"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}
