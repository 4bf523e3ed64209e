package iperf3

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/fionet/fionet/executor"
)

var (
	serverPort       = 5201
	serverProbeDelay = 250 * time.Millisecond
	serverProbeTries = 8
)

// IsLocal reports whether the configured server address points at this host,
// meaning nobody else is running the server side.
func IsLocal(server string) bool {
	host := server
	if h, _, err := net.SplitHostPort(server); err == nil {
		host = h
	}
	switch host {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// LocalServer is a background iperf3 server started for runs that target this
// host. It lives for one run and is terminated afterwards.
type LocalServer struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartLocalServer starts `iperf3 -s` in the background and waits until its
// port accepts connections. When a server is already listening there, nothing
// is started and (nil, nil) is returned; Stop on a nil server is a no-op.
func StartLocalServer(exec executor.Executor) (*LocalServer, error) {
	if portOpen() {
		slog.Info("iperf3 server already running", slog.Int("port", serverPort))
		return nil, nil
	}
	if _, err := exec.LookPath("iperf3"); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &LocalServer{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		_, err := exec.Run(ctx, "iperf3", "-s")
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("local iperf3 server exited", slog.String("error", err.Error()))
		}
	}()

	for i := 0; i < serverProbeTries; i++ {
		time.Sleep(serverProbeDelay)
		if portOpen() {
			slog.Info("started local iperf3 server", slog.Int("port", serverPort))
			return s, nil
		}
	}
	s.Stop()
	return nil, fmt.Errorf("local iperf3 server did not start listening on port %d", serverPort)
}

// Stop terminates the server process and waits for it to exit.
func (s *LocalServer) Stop() {
	if s == nil {
		return
	}
	s.cancel()
	<-s.done
}

func portOpen() bool {
	addr := net.JoinHostPort("localhost", strconv.Itoa(serverPort))
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
