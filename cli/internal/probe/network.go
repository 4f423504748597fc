package probe

import (
	"net"
	"strings"

	"github.com/samber/lo"
)

// cgnat is 100.64.0.0/10, used by carrier NAT, WARP and Tailscale.
var cgnat = &net.IPNet{IP: net.IPv4(100, 64, 0, 0), Mask: net.CIDRMask(10, 32)}

var tunnelNames = []string{"tun", "tap", "wg", "ppp", "warp"}

// iface is the part of a network interface the relay heuristic looks at.
type iface struct {
	name  string
	flags net.Flags
	addrs []net.IP
}

// restrictedNetwork reports whether this host looks to be behind a VPN or
// carrier NAT, where direct candidates rarely connect. Swapped in tests.
var restrictedNetwork = func() bool {
	return looksRestricted(localInterfaces())
}

func localInterfaces() []iface {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}
	return lo.Map(ifaces, func(i net.Interface, _ int) iface {
		out := iface{name: i.Name, flags: i.Flags}
		addrs, _ := i.Addrs()
		for _, a := range addrs {
			switch v := a.(type) {
			case *net.IPNet:
				out.addrs = append(out.addrs, v.IP)
			case *net.IPAddr:
				out.addrs = append(out.addrs, v.IP)
			}
		}
		return out
	})
}

func looksRestricted(ifaces []iface) bool {
	return lo.SomeBy(ifaces, func(i iface) bool {
		if i.flags&net.FlagUp == 0 || i.flags&net.FlagLoopback != 0 {
			return false
		}
		name := strings.ToLower(i.name)
		if lo.SomeBy(tunnelNames, func(t string) bool { return strings.Contains(name, t) }) {
			return true
		}
		return lo.SomeBy(i.addrs, cgnat.Contains)
	})
}
