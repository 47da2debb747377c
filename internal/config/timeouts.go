package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	InstanceState     time.Duration // Timeout for instances to reach a target state
	SpotGrant         time.Duration // Timeout for spot requests to be fulfilled
	Settle            time.Duration // Timeout for new instances to become describable
	GroupDelete       time.Duration // Timeout for deleting a cluster security group
	ConvergePoll      time.Duration // Interval between instance state polls
	SpotPoll          time.Duration // Interval between spot request polls
	SSHDial           time.Duration // Timeout for a single SSH dial
	RetryMaxAttempts  int           // Maximum number of retry attempts
	RetryInitialDelay time.Duration // Initial delay between retries
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - SPARKFLEET_TIMEOUT_INSTANCE_STATE (default: 15m)
//   - SPARKFLEET_TIMEOUT_SPOT_GRANT (default: 30m)
//   - SPARKFLEET_TIMEOUT_SETTLE (default: 2m)
//   - SPARKFLEET_TIMEOUT_GROUP_DELETE (default: 5m)
//   - SPARKFLEET_TIMEOUT_CONVERGE_POLL (default: 3s)
//   - SPARKFLEET_TIMEOUT_SPOT_POLL (default: 30s)
//   - SPARKFLEET_TIMEOUT_SSH_DIAL (default: 10s)
//   - SPARKFLEET_RETRY_MAX_ATTEMPTS (default: 5)
//   - SPARKFLEET_RETRY_INITIAL_DELAY (default: 1s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		InstanceState:     parseDuration("SPARKFLEET_TIMEOUT_INSTANCE_STATE", 15*time.Minute),
		SpotGrant:         parseDuration("SPARKFLEET_TIMEOUT_SPOT_GRANT", 30*time.Minute),
		Settle:            parseDuration("SPARKFLEET_TIMEOUT_SETTLE", 2*time.Minute),
		GroupDelete:       parseDuration("SPARKFLEET_TIMEOUT_GROUP_DELETE", 5*time.Minute),
		ConvergePoll:      parseDuration("SPARKFLEET_TIMEOUT_CONVERGE_POLL", 3*time.Second),
		SpotPoll:          parseDuration("SPARKFLEET_TIMEOUT_SPOT_POLL", 30*time.Second),
		SSHDial:           parseDuration("SPARKFLEET_TIMEOUT_SSH_DIAL", 10*time.Second),
		RetryMaxAttempts:  parseInt("SPARKFLEET_RETRY_MAX_ATTEMPTS", 5),
		RetryInitialDelay: parseDuration("SPARKFLEET_RETRY_INITIAL_DELAY", 1*time.Second),
	}
}

// TestTimeouts returns short timeouts for unit tests.
func TestTimeouts() *Timeouts {
	return &Timeouts{
		InstanceState:     5 * time.Second,
		SpotGrant:         5 * time.Second,
		Settle:            2 * time.Second,
		GroupDelete:       2 * time.Second,
		ConvergePoll:      time.Millisecond,
		SpotPoll:          time.Millisecond,
		SSHDial:           time.Second,
		RetryMaxAttempts:  5,
		RetryInitialDelay: time.Millisecond,
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set, parsing fails, or the value is not positive, the
// default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
