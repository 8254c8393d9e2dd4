package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsSelfConsistent(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1, cfg.TruckID)
	assert.False(t, cfg.AllowReverse)
	assert.Greater(t, cfg.PeriodNav, cfg.PeriodLog*0) // sanity: positive durations
}

func TestEnvOverridesDefault(t *testing.T) {
	t.Setenv("TRUCKCTL_TRUCK_ID", "7")
	t.Setenv("TRUCKCTL_BROKER_URL", "tcp://mine-broker:1883")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.TruckID)
	assert.Equal(t, "tcp://mine-broker:1883", cfg.BrokerURL)
}

func TestFlagOverridesEnv(t *testing.T) {
	t.Setenv("TRUCKCTL_TRUCK_ID", "7")

	cfg, err := Load([]string{"--truck-id", "9"})
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.TruckID, "a flag explicitly passed outranks the environment")
}

func TestYAMLFileOverridesEnvButNotExplicitFlags(t *testing.T) {
	t.Setenv("TRUCKCTL_TRUCK_ID", "7")

	f, err := os.CreateTemp(t.TempDir(), "truckctl-*.yaml")
	require.NoError(t, err)
	_, err = f.WriteString("truck_id: 3\nbroker_url: tcp://yaml-broker:1883\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	cfg, err := Load([]string{"--config", f.Name(), "--broker-url", "tcp://flag-broker:1883"})
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.TruckID, "the YAML value replaces the env value")
	assert.Equal(t, "tcp://flag-broker:1883", cfg.BrokerURL, "an explicit flag still outranks the YAML file")
}
