package netinfo

import (
	"os/exec"
	"strings"
)

// Resolver maps a client IP address to a hardware address. Implementations
// return "" when the lookup fails; callers record the address as unknown.
type Resolver interface {
	MAC(ip string) string
}

// ARPResolver consults the kernel ARP table via the arp tool. Only hosts on
// the local segment resolve; anything routed returns "".
type ARPResolver struct{}

func NewARPResolver() *ARPResolver {
	return &ARPResolver{}
}

func (r *ARPResolver) MAC(ip string) string {
	// IPv6-mapped addresses like ::ffff:10.0.0.7 carry the IPv4 part last.
	if idx := strings.LastIndex(ip, ":"); idx >= 0 {
		ip = ip[idx+1:]
	}
	if ip == "" {
		return ""
	}

	out, err := exec.Command("arp", "-n", ip).Output()
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(out), "\n") {
		if !strings.Contains(line, ip) {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) > 2 && parts[2] != "(incomplete)" {
			return parts[2]
		}
	}
	return ""
}

// StaticResolver returns a fixed answer; used in tests and when MAC
// resolution is disabled.
type StaticResolver struct {
	Addr string
}

func (r StaticResolver) MAC(string) string {
	return r.Addr
}
