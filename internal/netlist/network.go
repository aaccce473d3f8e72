// Package netlist is a read-only terminal screen listing libvirt networks.
//
// The screen has two pages. The list page shows every defined network; the
// details page shows the basic and IPv4 configuration of the selected one.
// Nothing on either page modifies a network.
package netlist

import (
	"fmt"
	"net"
	"net/netip"
	"strings"

	"github.com/rs/zerolog"
	"libvirt.org/go/libvirtxml"
)

// Source is the libvirt query surface the screen reads from.
type Source interface {
	ListNetworks() ([]string, error)
	NetworkXML(name string) (string, error)
	NetworkAutostart(name string) (bool, error)
	NetworkActive(name string) (bool, error)
	NetworkBridge(name string) (string, error)
}

// DHCPRange is the first DHCP range of a network.
type DHCPRange struct {
	Start netip.Addr
	End   netip.Addr
}

// Network is a snapshot of one libvirt network.
type Network struct {
	Name      string
	Bridge    string
	Autostart bool
	Active    bool

	// IPv4 is the zero Prefix when the network has no IPv4 address.
	IPv4 netip.Prefix
	DHCP *DHCPRange

	ForwardMode string
	ForwardDev  string
}

// Field is one row of the details page. Header rows have no value.
type Field struct {
	Label  string
	Value  string
	Header bool
}

// Load reads every network from src.
func Load(src Source, logger zerolog.Logger) ([]Network, error) {
	names, err := src.ListNetworks()
	if err != nil {
		return nil, err
	}

	networks := make([]Network, 0, len(names))
	for _, name := range names {
		n, err := loadNetwork(src, name, logger)
		if err != nil {
			return nil, err
		}
		networks = append(networks, n)
	}

	logger.Debug().Int("count", len(networks)).Msg("loaded networks")
	return networks, nil
}

func loadNetwork(src Source, name string, logger zerolog.Logger) (Network, error) {
	xml, err := src.NetworkXML(name)
	if err != nil {
		return Network{}, err
	}
	n, err := ParseNetwork(xml)
	if err != nil {
		return Network{}, err
	}

	if n.Autostart, err = src.NetworkAutostart(name); err != nil {
		return Network{}, err
	}
	if n.Active, err = src.NetworkActive(name); err != nil {
		return Network{}, err
	}

	// Inactive networks may have no bridge yet; keep the one from the XML.
	bridge, err := src.NetworkBridge(name)
	if err != nil {
		logger.Debug().Err(err).Str("network", name).Msg("no bridge reported, using definition")
	} else if bridge != "" {
		n.Bridge = bridge
	}

	return n, nil
}

// ParseNetwork builds a Network from its libvirt XML description. Runtime
// state (autostart, active) is left unset.
func ParseNetwork(xml string) (Network, error) {
	var def libvirtxml.Network
	if err := def.Unmarshal(xml); err != nil {
		return Network{}, fmt.Errorf("failed to parse network XML: %w", err)
	}

	n := Network{Name: def.Name}
	if def.Bridge != nil {
		n.Bridge = def.Bridge.Name
	}
	if def.Forward != nil {
		n.ForwardMode = def.Forward.Mode
		n.ForwardDev = def.Forward.Dev
	}

	for _, ip := range def.IPs {
		if ip.Family != "" && ip.Family != "ipv4" {
			continue
		}
		prefix, err := ipv4Prefix(ip)
		if err != nil {
			return Network{}, fmt.Errorf("network %s: %w", def.Name, err)
		}
		n.IPv4 = prefix

		if ip.DHCP != nil && len(ip.DHCP.Ranges) > 0 {
			r := ip.DHCP.Ranges[0]
			start, err := netip.ParseAddr(r.Start)
			if err != nil {
				return Network{}, fmt.Errorf("network %s: invalid DHCP start: %w", def.Name, err)
			}
			end, err := netip.ParseAddr(r.End)
			if err != nil {
				return Network{}, fmt.Errorf("network %s: invalid DHCP end: %w", def.Name, err)
			}
			n.DHCP = &DHCPRange{Start: start, End: end}
		}
		break
	}

	return n, nil
}

func ipv4Prefix(ip libvirtxml.NetworkIP) (netip.Prefix, error) {
	addr, err := netip.ParseAddr(ip.Address)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid address %q: %w", ip.Address, err)
	}

	bits := int(ip.Prefix)
	if ip.Netmask != "" {
		mask := net.ParseIP(ip.Netmask).To4()
		if mask == nil {
			return netip.Prefix{}, fmt.Errorf("invalid netmask %q", ip.Netmask)
		}
		ones, size := net.IPMask(mask).Size()
		if size == 0 {
			return netip.Prefix{}, fmt.Errorf("non-contiguous netmask %q", ip.Netmask)
		}
		bits = ones
	}

	return netip.PrefixFrom(addr, bits).Masked(), nil
}

// PrettyForwardMode describes how traffic leaves the network.
func (n Network) PrettyForwardMode() string {
	mode, dev := n.ForwardMode, n.ForwardDev
	if mode == "" && dev == "" {
		return "Isolated network, internal and host routing only"
	}

	switch mode {
	case "", "nat":
		if dev != "" {
			return "NAT to " + dev
		}
		return "NAT"
	case "route":
		if dev != "" {
			return "Route to " + dev
		}
		return "Routed network"
	default:
		name := strings.ToUpper(mode[:1]) + mode[1:]
		if dev != "" {
			return name + " to " + dev
		}
		return name + " network"
	}
}

// Fields returns the rows of the details page in display order.
//
// Autostart appears twice, once as Yes/No and once as On Boot/Never.
func (n Network) Fields() []Field {
	network := "None"
	if n.IPv4.IsValid() {
		network = n.IPv4.String()
	}

	dhcpStart, dhcpEnd := "Disabled", "Disabled"
	if n.DHCP != nil {
		dhcpStart = n.DHCP.Start.String()
		dhcpEnd = n.DHCP.End.String()
	}

	return []Field{
		{Label: "Basic details", Header: true},
		{Label: "Name", Value: n.Name},
		{Label: "Device", Value: n.Bridge},
		{Label: "Autostart", Value: choose(n.Autostart, "Yes", "No")},
		{Label: "State", Value: choose(n.Active, "Active", "Inactive")},
		{Label: "Autostart", Value: choose(n.Autostart, "On Boot", "Never")},
		{Label: "IPv4 configuration", Header: true},
		{Label: "Network", Value: network},
		{Label: "DHCP start", Value: dhcpStart},
		{Label: "DHCP end", Value: dhcpEnd},
		{Label: "Forwarding", Value: n.PrettyForwardMode()},
	}
}

func choose(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}
