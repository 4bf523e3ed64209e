package config

import (
	"testing"

	"github.com/fionet/fionet/runenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(runenv.Environment{})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000", cfg.Endpoint)
	assert.Equal(t, "minioadmin", cfg.AccessKey)
	assert.Equal(t, "minioadmin", cfg.SecretKey)
	assert.Equal(t, "fio-bench", cfg.Bucket)
	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, 60, cfg.RuntimeSec)
	assert.Equal(t, 5, cfg.RampSec)
	assert.Equal(t, "4M", cfg.ObjectSize)
	assert.Equal(t, 4, cfg.NumJobsA)
	assert.Equal(t, 4, cfg.NumJobsB)
	assert.False(t, cfg.Iperf3Enabled)
	assert.Equal(t, "localhost", cfg.Iperf3Server)
	assert.Equal(t, 10, cfg.Iperf3DurationSec)
	assert.Equal(t, "out", cfg.OutDir)
}

func TestLoadContainerDefaults(t *testing.T) {
	cfg, err := Load(runenv.Environment{InContainer: true})
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000", cfg.Endpoint)
	assert.Equal(t, "iperf3-server", cfg.Iperf3Server)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("S3_ENDPOINT", "http://storage.internal:9000")
	t.Setenv("S3_BUCKET", "soak")
	t.Setenv("FIO_RUNTIME", "600")
	t.Setenv("FIO_NUMJOBS_A", "8")
	t.Setenv("IPERF3_ENABLED", "true")
	t.Setenv("IPERF3_SERVER", "netprobe")

	cfg, err := Load(runenv.Environment{})
	require.NoError(t, err)
	assert.Equal(t, "http://storage.internal:9000", cfg.Endpoint)
	assert.Equal(t, "soak", cfg.Bucket)
	assert.Equal(t, 600, cfg.RuntimeSec)
	assert.Equal(t, 8, cfg.NumJobsA)
	assert.True(t, cfg.Iperf3Enabled)
	assert.Equal(t, "netprobe", cfg.Iperf3Server)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("FIO_RUNTIME", "0")
	_, err := Load(runenv.Environment{})
	assert.Error(t, err)
}

func TestProfiles(t *testing.T) {
	cfg, err := Load(runenv.Environment{})
	require.NoError(t, err)

	profiles := cfg.Profiles()
	require.Len(t, profiles, 2)
	assert.Equal(t, "write", profiles[0].Role)
	assert.Equal(t, "PUT", profiles[0].Method)
	assert.Equal(t, "read", profiles[1].Role)
	assert.Equal(t, "GET", profiles[1].Method)
}

func TestHTTPHost(t *testing.T) {
	cfg := &Config{Endpoint: "http://minio:9000"}
	assert.Equal(t, "minio:9000", cfg.HTTPHost())
	cfg = &Config{Endpoint: "https://s3.example.com"}
	assert.Equal(t, "s3.example.com", cfg.HTTPHost())
}

func TestParseSize(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want int64
	}{
		{"4M", 4 * 1024 * 1024},
		{"4m", 4 * 1024 * 1024},
		{"512K", 512 * 1024},
		{"1G", 1024 * 1024 * 1024},
		{"1048576", 1048576},
	} {
		got, err := ParseSize(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"", "M", "-4M", "4X4", "abc"} {
		_, err := ParseSize(bad)
		assert.Error(t, err, bad)
	}
}
