package prep

import (
	"context"
	"fmt"
	"net"
	"testing"

	"github.com/fionet/fionet/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func preparerFor(t *testing.T, endpoint string) *Preparer {
	t.Helper()
	cfg := &config.Config{
		Endpoint:  endpoint,
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "fio-bench",
		Region:    "us-east-1",
	}
	p, err := New(context.Background(), cfg, 4)
	require.NoError(t, err)
	return p
}

func TestCheckEndpointReachable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	go func() {
		conn, err := l.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	p := preparerFor(t, fmt.Sprintf("http://%s", l.Addr().String()))
	assert.NoError(t, p.CheckEndpoint(context.Background()))
}

func TestCheckEndpointUnreachable(t *testing.T) {
	// grab a port and release it so nothing listens there
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	p := preparerFor(t, fmt.Sprintf("http://%s", addr))
	err = p.CheckEndpoint(context.Background())
	assert.ErrorIs(t, err, ErrEndpointUnreachable)
}
