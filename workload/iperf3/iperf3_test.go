package iperf3

import (
	"testing"
	"time"

	"github.com/fionet/fionet/workload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidation(t *testing.T) {
	_, err := New(&Input{Name: "net", Server: "", DurationSec: 10})
	assert.Error(t, err)

	_, err = New(&Input{Name: "net", Server: "localhost", DurationSec: 0})
	assert.Error(t, err)
}

func TestRegistryDeserialize(t *testing.T) {
	w, err := workload.Deserialize(&workload.SerializedWorkload{
		Type: "iperf3",
		Input: map[string]any{
			"Name":        "iperf3",
			"Server":      "iperf3-server",
			"DurationSec": 10,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "iperf3", w.Name())
	assert.Equal(t, workload.RoleNetwork, w.Role())
}

func TestCommand(t *testing.T) {
	w, err := New(&Input{Name: "net", Server: "iperf3-server", DurationSec: 10})
	require.NoError(t, err)

	name, args, err := w.Command(&workload.Context{})
	require.NoError(t, err)
	assert.Equal(t, "iperf3", name)
	assert.Equal(t, []string{"-c", "iperf3-server", "-t", "10", "-J"}, args)
}

func TestTimeout(t *testing.T) {
	w, err := New(&Input{Name: "net", Server: "localhost", DurationSec: 10})
	require.NoError(t, err)
	assert.Equal(t, 40*time.Second, w.Timeout())
}

func TestUnknownWorkloadType(t *testing.T) {
	_, err := workload.Deserialize(&workload.SerializedWorkload{Type: "warp"})
	assert.Error(t, err)
}
