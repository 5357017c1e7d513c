// Package ipam turns an IPv4 pool definition into its usable host addresses.
package ipam

import (
	"strconv"
	"strings"

	"github.com/ttani03/goth-dcim/internal/apperr"
	"github.com/ttani03/goth-dcim/internal/models"
)

const (
	// MinPrefix is the widest pool accepted. Anything broader than /8
	// (16 million hosts) is rejected to keep pool seeding bounded.
	MinPrefix = 8
	// MaxPrefix is the narrowest pool with usable addresses once the network
	// and broadcast addresses are excluded.
	MaxPrefix = 30
)

// Candidate is one generated address and its initial status.
type Candidate struct {
	Address string
	Status  models.AddressStatus
}

// ParseIPv4 converts a dotted-quad string to its 32-bit value.
func ParseIPv4(s string) (uint32, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return 0, apperr.Config("invalid IPv4 address %q", s)
	}

	var v uint32
	for _, p := range parts {
		// Leading zeros are rejected to avoid octal ambiguity ("010").
		if p == "" || len(p) > 3 || (len(p) > 1 && p[0] == '0') {
			return 0, apperr.Config("invalid IPv4 address %q", s)
		}
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return 0, apperr.Config("invalid IPv4 address %q", s)
		}
		v = v<<8 | uint32(n)
	}
	return v, nil
}

// FormatIPv4 converts a 32-bit value to dotted-quad form.
func FormatIPv4(v uint32) string {
	var b strings.Builder
	b.Grow(15)
	b.WriteString(strconv.FormatUint(uint64(v>>24), 10))
	b.WriteByte('.')
	b.WriteString(strconv.FormatUint(uint64(v>>16&0xff), 10))
	b.WriteByte('.')
	b.WriteString(strconv.FormatUint(uint64(v>>8&0xff), 10))
	b.WriteByte('.')
	b.WriteString(strconv.FormatUint(uint64(v&0xff), 10))
	return b.String()
}

// Mask returns the netmask for a prefix length as a 32-bit value.
func Mask(prefix int) uint32 {
	if prefix <= 0 {
		return 0
	}
	return ^uint32(0) << (32 - uint(prefix))
}

// ValidatePool checks a pool definition. All failures are config errors.
// gateway and the DNS servers may be empty.
func ValidatePool(network string, prefix int, gateway string, dnsServers []string) error {
	if prefix < MinPrefix || prefix > MaxPrefix {
		return apperr.Config("prefix length must be between /%d and /%d, got /%d", MinPrefix, MaxPrefix, prefix)
	}
	n, err := ParseIPv4(network)
	if err != nil {
		return err
	}
	if n&^Mask(prefix) != 0 {
		return apperr.Config("%s has host bits set for /%d; a pool starts at its network address, use %s",
			network, prefix, FormatIPv4(n&Mask(prefix)))
	}
	if gateway != "" {
		if _, err := ParseIPv4(gateway); err != nil {
			return apperr.Config("invalid gateway address %q", gateway)
		}
	}
	for _, dns := range dnsServers {
		if _, err := ParseIPv4(dns); err != nil {
			return apperr.Config("invalid DNS server address %q", dns)
		}
	}
	return nil
}

// Range describes the address block of a pool.
type Range struct {
	Network   string
	Broadcast string
	FirstHost string
	LastHost  string
	Usable    int
}

// Describe returns the range of a valid pool definition.
func Describe(network string, prefix int) (Range, error) {
	if err := ValidatePool(network, prefix, "", nil); err != nil {
		return Range{}, err
	}
	n, _ := ParseIPv4(network)
	total := uint32(1) << (32 - uint(prefix))
	last := n + total - 1
	return Range{
		Network:   FormatIPv4(n),
		Broadcast: FormatIPv4(last),
		FirstHost: FormatIPv4(n + 1),
		LastHost:  FormatIPv4(last - 1),
		Usable:    int(total - 2),
	}, nil
}

// Hosts enumerates the usable host addresses of a pool without holding
// them in memory.
type Hosts struct {
	network    uint32
	count      int
	gateway    uint32
	hasGateway bool
}

// NewHosts validates network/prefix and returns its usable addresses. The
// network and broadcast addresses are excluded.
func NewHosts(network string, prefix int, gateway string) (Hosts, error) {
	if err := ValidatePool(network, prefix, gateway, nil); err != nil {
		return Hosts{}, err
	}
	n, _ := ParseIPv4(network)
	h := Hosts{network: n, count: int(uint32(1)<<(32-uint(prefix))) - 2}
	if gateway != "" {
		h.gateway, _ = ParseIPv4(gateway)
		h.hasGateway = true
	}
	return h, nil
}

func (h Hosts) Len() int {
	return h.count
}

// At returns the i-th usable address in ascending order, counting from 0.
// The address equal to the gateway is reserved; the rest are available.
func (h Hosts) At(i int) Candidate {
	addr := h.network + 1 + uint32(i)
	status := models.AddressAvailable
	if h.hasGateway && addr == h.gateway {
		status = models.AddressReserved
	}
	return Candidate{Address: FormatIPv4(addr), Status: status}
}

// Generate enumerates every usable host address of network/prefix in
// ascending order. See Hosts.
func Generate(network string, prefix int, gateway string) ([]Candidate, error) {
	hosts, err := NewHosts(network, prefix, gateway)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, hosts.Len())
	for i := range out {
		out[i] = hosts.At(i)
	}
	return out, nil
}

// Contains reports whether addr falls inside network/prefix.
func Contains(network string, prefix int, addr string) bool {
	n, err := ParseIPv4(network)
	if err != nil {
		return false
	}
	a, err := ParseIPv4(addr)
	if err != nil {
		return false
	}
	m := Mask(prefix)
	return a&m == n&m
}
