package probe

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLooksRestricted(t *testing.T) {
	up := net.FlagUp
	cases := []struct {
		name   string
		ifaces []iface
		want   bool
	}{
		{"plain lan", []iface{{name: "eth0", flags: up, addrs: []net.IP{net.ParseIP("192.168.1.20")}}}, false},
		{"wireguard", []iface{{name: "wg0", flags: up}}, true},
		{"tunnel down", []iface{{name: "tun0"}}, false},
		{"loopback ignored", []iface{{name: "lo", flags: up | net.FlagLoopback, addrs: []net.IP{net.ParseIP("100.64.0.1")}}}, false},
		{"cgnat address", []iface{{name: "en0", flags: up, addrs: []net.IP{net.ParseIP("100.100.3.4")}}}, true},
		{"outside cgnat", []iface{{name: "en0", flags: up, addrs: []net.IP{net.ParseIP("100.128.0.1")}}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, looksRestricted(tc.ifaces))
		})
	}
}

func TestNewPeerConnection_RelayNeedsTURN(t *testing.T) {
	orig := restrictedNetwork
	restrictedNetwork = func() bool { return true }
	t.Cleanup(func() { restrictedNetwork = orig })

	// Without TURN the policy stays open even on a restricted network.
	pc, err := NewPeerConnection(offlineConfig(), true)
	require.NoError(t, err)
	require.Equal(t, "all", pc.GetConfiguration().ICETransportPolicy.String())
	pc.Close()
}
