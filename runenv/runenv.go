package runenv

import (
	"os"
	"path/filepath"
	"strings"
)

// Environment is the resolved execution context. It is determined once at
// startup; everything downstream treats it as a plain immutable value.
type Environment struct {
	InContainer bool
}

// Detect determines whether we are running inside a container.
func Detect() Environment {
	return detect("/", os.Getenv)
}

func detect(root string, getenv func(string) string) Environment {
	if _, err := os.Stat(filepath.Join(root, ".dockerenv")); err == nil {
		return Environment{InContainer: true}
	}

	// Linux containers show up in the init process's cgroup
	buf, err := os.ReadFile(filepath.Join(root, "proc/1/cgroup"))
	if err == nil {
		s := string(buf)
		if strings.Contains(s, "docker") || strings.Contains(s, "kubepods") {
			return Environment{InContainer: true}
		}
	}

	// can be set explicitly, e.g. in docker-compose
	if getenv("DOCKER_CONTAINER") != "" {
		return Environment{InContainer: true}
	}

	return Environment{}
}

// DefaultEndpoint returns the storage endpoint to use when none is configured.
// Inside a container the compose-network hostname resolves; on a host we
// assume a local MinIO.
func (e Environment) DefaultEndpoint() string {
	if e.InContainer {
		return "http://minio:9000"
	}
	return "http://localhost:9000"
}

// DefaultIperf3Server returns the iperf3 server address to use when none is
// configured.
func (e Environment) DefaultIperf3Server() string {
	if e.InContainer {
		return "iperf3-server"
	}
	return "localhost"
}
