package iperf3

import (
	"context"
	"io/fs"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/fionet/fionet/executor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serverExec listens on the configured server port for as long as its
// command runs, standing in for iperf3 -s.
type serverExec struct {
	listen bool
}

func (e *serverExec) Run(ctx context.Context, name string, args ...string) (*executor.Result, error) {
	if e.listen {
		l, err := net.Listen("tcp", net.JoinHostPort("localhost", strconv.Itoa(serverPort)))
		if err != nil {
			return nil, err
		}
		defer l.Close()
	}
	<-ctx.Done()
	return &executor.Result{}, ctx.Err()
}

func (e *serverExec) LookPath(name string) (string, error) {
	return "/usr/bin/" + name, nil
}

func (e *serverExec) WriteFile(path string, data []byte, perm fs.FileMode) error {
	return nil
}

func withFreeServerPort(t *testing.T) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	old := serverPort
	serverPort = port
	t.Cleanup(func() { serverPort = old })
}

func TestIsLocal(t *testing.T) {
	assert.True(t, IsLocal("localhost"))
	assert.True(t, IsLocal("127.0.0.1"))
	assert.True(t, IsLocal("localhost:5201"))
	assert.False(t, IsLocal("iperf3-server"))
	assert.False(t, IsLocal("10.0.0.7"))
}

func TestStartLocalServerServesUntilStopped(t *testing.T) {
	withFreeServerPort(t)

	srv, err := StartLocalServer(&serverExec{listen: true})
	require.NoError(t, err)
	require.NotNil(t, srv)

	addr := net.JoinHostPort("localhost", strconv.Itoa(serverPort))
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	conn.Close()

	srv.Stop()
	_, err = net.DialTimeout("tcp", addr, 100*time.Millisecond)
	assert.Error(t, err)
}

func TestStartLocalServerSkipsWhenAlreadyRunning(t *testing.T) {
	withFreeServerPort(t)

	l, err := net.Listen("tcp", net.JoinHostPort("localhost", strconv.Itoa(serverPort)))
	require.NoError(t, err)
	defer l.Close()

	srv, err := StartLocalServer(&serverExec{listen: true})
	require.NoError(t, err)
	assert.Nil(t, srv)
	assert.NotPanics(t, srv.Stop)
}

func TestStartLocalServerFailsWhenPortNeverOpens(t *testing.T) {
	withFreeServerPort(t)

	oldTries, oldDelay := serverProbeTries, serverProbeDelay
	serverProbeTries, serverProbeDelay = 2, 10*time.Millisecond
	t.Cleanup(func() { serverProbeTries, serverProbeDelay = oldTries, oldDelay })

	_, err := StartLocalServer(&serverExec{listen: false})
	assert.Error(t, err)
}
