package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/fionet/fionet/runenv"
)

// Config holds every resolved run parameter. It is built once per invocation
// and never mutated afterwards; concurrent launches share it by reference.
type Config struct {
	Endpoint  string `env:"S3_ENDPOINT"`
	AccessKey string `env:"S3_ACCESS_KEY" envDefault:"minioadmin"`
	SecretKey string `env:"S3_SECRET_KEY" envDefault:"minioadmin"`
	Bucket    string `env:"S3_BUCKET" envDefault:"fio-bench"`
	Region    string `env:"S3_REGION" envDefault:"us-east-1"`

	RuntimeSec int    `env:"FIO_RUNTIME" envDefault:"60"`
	RampSec    int    `env:"FIO_RAMP_TIME" envDefault:"5"`
	ObjectSize string `env:"FIO_OBJECT_SIZE" envDefault:"4M"`
	ProfileA   string `env:"FIO_PROFILE_A" envDefault:"profiles/profile_write.ini"`
	ProfileB   string `env:"FIO_PROFILE_B" envDefault:"profiles/profile_read.ini"`
	NumJobsA   int    `env:"FIO_NUMJOBS_A" envDefault:"4"`
	NumJobsB   int    `env:"FIO_NUMJOBS_B" envDefault:"4"`

	Iperf3Enabled     bool   `env:"IPERF3_ENABLED" envDefault:"false"`
	Iperf3Server      string `env:"IPERF3_SERVER"`
	Iperf3DurationSec int    `env:"IPERF3_DURATION" envDefault:"10"`

	OutDir        string `env:"OUT_DIR" envDefault:"out"`
	SysmonEnabled bool   `env:"SYSMON_ENABLED" envDefault:"false"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
}

// Profile is one configured workload pattern. Every run has exactly two, one
// write-oriented and one read-oriented.
type Profile struct {
	Name    string
	Role    string // "write" or "read"
	JobRef  string // the job-definition reference, opaque to us
	NumJobs int
	Method  string // the HTTP method this profile exercises
}

// Load parses the environment into a Config, filling the context-dependent
// defaults from the resolved execution environment.
func Load(e runenv.Environment) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment failed: %w", err)
	}

	if cfg.Endpoint == "" {
		cfg.Endpoint = e.DefaultEndpoint()
	}
	if cfg.Iperf3Server == "" {
		cfg.Iperf3Server = e.DefaultIperf3Server()
	}

	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid S3_ENDPOINT %q: %w", cfg.Endpoint, err)
	}
	if _, err := cfg.ObjectSizeBytes(); err != nil {
		return nil, err
	}
	if cfg.RuntimeSec <= 0 {
		return nil, fmt.Errorf("FIO_RUNTIME must be positive, got %d", cfg.RuntimeSec)
	}
	if cfg.NumJobsA <= 0 || cfg.NumJobsB <= 0 {
		return nil, fmt.Errorf("job counts must be positive, got A=%d B=%d", cfg.NumJobsA, cfg.NumJobsB)
	}

	return cfg, nil
}

// Profiles returns the two configured load profiles, write first.
func (c *Config) Profiles() []Profile {
	return []Profile{
		{Name: "profile_a_write", Role: "write", JobRef: c.ProfileA, NumJobs: c.NumJobsA, Method: "PUT"},
		{Name: "profile_b_read", Role: "read", JobRef: c.ProfileB, NumJobs: c.NumJobsB, Method: "GET"},
	}
}

// HTTPHost returns the endpoint without its scheme, the form fio's http
// engine wants.
func (c *Config) HTTPHost() string {
	host := strings.TrimPrefix(c.Endpoint, "http://")
	return strings.TrimPrefix(host, "https://")
}

// ObjectSizeBytes parses the configured object size. Suffixes K, M and G are
// binary multiples, matching fio's block size syntax.
func (c *Config) ObjectSizeBytes() (int64, error) {
	return ParseSize(c.ObjectSize)
}

func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}

	mult := int64(1)
	switch unit := s[len(s)-1]; unit {
	case 'k', 'K':
		mult = 1024
		s = s[:len(s)-1]
	case 'm', 'M':
		mult = 1024 * 1024
		s = s[:len(s)-1]
	case 'g', 'G':
		mult = 1024 * 1024 * 1024
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("size must be positive, got %d", n)
	}
	return n * mult, nil
}
