package config

import (
	"fmt"
	"net"
	"strings"
)

// maxHostsPerSpec caps expansion so a typo'd range ("10.0.0.1-10.255.0.1")
// cannot balloon the endpoint list.
const maxHostsPerSpec = 10000

// ExpandHostSpec turns a BMC host specification into individual addresses.
// Three forms are accepted: a single IPv4 address, a dash range
// ("10.10.10.1-10.10.10.25"), or CIDR notation ("192.168.1.0/24", network
// and broadcast addresses excluded). Used by endpoint_ranges expansion to
// bulk-populate Endpoints without listing every BMC by hand.
func ExpandHostSpec(spec string) ([]string, error) {
	spec = strings.TrimSpace(spec)
	if strings.Contains(spec, "/") {
		return expandCIDR(spec)
	}
	return expandDashRange(spec)
}

// ValidateHostSpec reports whether spec is one of the forms ExpandHostSpec
// accepts, without keeping the expansion.
func ValidateHostSpec(spec string) error {
	_, err := ExpandHostSpec(spec)
	return err
}

func expandDashRange(spec string) ([]string, error) {
	if !strings.Contains(spec, "-") {
		if ip := net.ParseIP(spec); ip == nil || ip.To4() == nil {
			return nil, fmt.Errorf("invalid IPv4 address: %s", spec)
		}
		return []string{spec}, nil
	}

	parts := strings.SplitN(spec, "-", 2)
	start := net.ParseIP(strings.TrimSpace(parts[0]))
	end := net.ParseIP(strings.TrimSpace(parts[1]))
	if start == nil || end == nil {
		return nil, fmt.Errorf("invalid IP range (expected 'start-end'): %s", spec)
	}
	if start, end = start.To4(), end.To4(); start == nil || end == nil {
		return nil, fmt.Errorf("only IPv4 ranges are supported: %s", spec)
	}
	if compareIPv4(start, end) > 0 {
		return nil, fmt.Errorf("start IP must be <= end IP: %s", spec)
	}

	var hosts []string
	for ip := copyIPv4(start); compareIPv4(ip, end) <= 0; incrementIPv4(ip) {
		hosts = append(hosts, ip.String())
		if len(hosts) > maxHostsPerSpec {
			return nil, fmt.Errorf("host range too large (max %d): %s", maxHostsPerSpec, spec)
		}
	}
	return hosts, nil
}

func expandCIDR(spec string) ([]string, error) {
	ip, ipNet, err := net.ParseCIDR(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid CIDR: %w", err)
	}
	if ip.To4() == nil {
		return nil, fmt.Errorf("only IPv4 CIDR is supported: %s", spec)
	}

	ones, bits := ipNet.Mask.Size()
	properSubnet := ones < bits

	var hosts []string
	for ip := ip.Mask(ipNet.Mask); ipNet.Contains(ip); incrementIPv4(ip) {
		if properSubnet && (ip.Equal(ipNet.IP) || isBroadcast(ip, ipNet)) {
			continue
		}
		hosts = append(hosts, copyIPv4(ip).String())
		if len(hosts) > maxHostsPerSpec {
			return nil, fmt.Errorf("CIDR range too large (max %d): %s", maxHostsPerSpec, spec)
		}
	}
	return hosts, nil
}

func compareIPv4(a, b net.IP) int {
	a, b = a.To4(), b.To4()
	for i := 0; i < 4; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func incrementIPv4(ip net.IP) {
	for i := len(ip) - 1; i >= 0; i-- {
		ip[i]++
		if ip[i] > 0 {
			break
		}
	}
}

func copyIPv4(ip net.IP) net.IP {
	dup := make(net.IP, len(ip))
	copy(dup, ip)
	return dup
}

func isBroadcast(ip net.IP, ipNet *net.IPNet) bool {
	broadcast := make(net.IP, len(ipNet.IP))
	for i := range ipNet.IP {
		broadcast[i] = ipNet.IP[i] | ^ipNet.Mask[i]
	}
	return ip.Equal(broadcast)
}
