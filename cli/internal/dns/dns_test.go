package dns

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolve_IPLiteral(t *testing.T) {
	ip, err := Resolve(context.Background(), "10.1.2.3")
	require.NoError(t, err)
	require.Equal(t, "10.1.2.3", ip)

	ip, err = Resolve(context.Background(), "::1")
	require.NoError(t, err)
	require.Equal(t, "::1", ip)
}

func TestResolve_Localhost(t *testing.T) {
	ip, err := Resolve(context.Background(), "localhost")
	require.NoError(t, err)
	require.True(t, net.ParseIP(ip).IsLoopback(), ip)
}

func TestRacePublic_AllFail(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	// Nothing answers DNS on the loopback address in the test environment.
	_, err := racePublic(ctx, "example.invalid", []string{"127.0.0.1"})
	require.Error(t, err)
}

func TestDialer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	_, port, err := net.SplitHostPort(strings.TrimPrefix(srv.URL, "http://"))
	require.NoError(t, err)

	dial := Dialer(&net.Dialer{Timeout: time.Second})
	conn, err := dial(context.Background(), "tcp", net.JoinHostPort("localhost", port))
	require.NoError(t, err)
	conn.Close()

	_, err = dial(context.Background(), "tcp", "missing-port")
	require.Error(t, err)
}
