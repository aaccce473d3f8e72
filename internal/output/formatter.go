// Package output renders installations and networks as tables, YAML or
// JSON.
package output

import (
	"fmt"

	"github.com/jbweber/virtinst/api/v1alpha1"
	"github.com/jbweber/virtinst/internal/netlist"
)

// Format represents an output format type.
type Format string

const (
	// FormatTable is a human-readable table format.
	FormatTable Format = "table"
	// FormatYAML is a YAML format for declarative configs.
	FormatYAML Format = "yaml"
	// FormatJSON is a JSON format for machine consumption.
	FormatJSON Format = "json"
)

// Formatter formats virtinst resources for output.
type Formatter interface {
	// FormatInstallation formats a single Installation.
	FormatInstallation(inst *v1alpha1.Installation) (string, error)

	// FormatInstallationList formats several Installations.
	FormatInstallationList(insts []*v1alpha1.Installation) (string, error)

	// FormatNetworkList formats libvirt networks.
	FormatNetworkList(networks []netlist.Network) (string, error)
}

// Options contains options for formatting output.
type Options struct {
	Format Format
	// NoHeaders omits headers in table format.
	NoHeaders bool
}

// NewFormatter creates a new Formatter based on the specified format.
func NewFormatter(opts Options) (Formatter, error) {
	switch opts.Format {
	case FormatTable:
		return &TableFormatter{NoHeaders: opts.NoHeaders}, nil
	case FormatYAML:
		return &YAMLFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: table, yaml, json)", opts.Format)
	}
}

// ValidateFormat checks if a format string is valid.
func ValidateFormat(format string) error {
	switch Format(format) {
	case FormatTable, FormatYAML, FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid format: %s (valid formats: table, yaml, json)", format)
	}
}

// networkView is the serialized form of a network.
type networkView struct {
	Name        string `json:"name" yaml:"name"`
	Bridge      string `json:"bridge,omitempty" yaml:"bridge,omitempty"`
	Active      bool   `json:"active" yaml:"active"`
	Autostart   bool   `json:"autostart" yaml:"autostart"`
	IPv4        string `json:"ipv4,omitempty" yaml:"ipv4,omitempty"`
	DHCPStart   string `json:"dhcpStart,omitempty" yaml:"dhcpStart,omitempty"`
	DHCPEnd     string `json:"dhcpEnd,omitempty" yaml:"dhcpEnd,omitempty"`
	ForwardMode string `json:"forwardMode,omitempty" yaml:"forwardMode,omitempty"`
	ForwardDev  string `json:"forwardDev,omitempty" yaml:"forwardDev,omitempty"`
}

func newNetworkView(n netlist.Network) networkView {
	v := networkView{
		Name:        n.Name,
		Bridge:      n.Bridge,
		Active:      n.Active,
		Autostart:   n.Autostart,
		ForwardMode: n.ForwardMode,
		ForwardDev:  n.ForwardDev,
	}
	if n.IPv4.IsValid() {
		v.IPv4 = n.IPv4.String()
	}
	if n.DHCP != nil {
		v.DHCPStart = n.DHCP.Start.String()
		v.DHCPEnd = n.DHCP.End.String()
	}
	return v
}

func networkViews(networks []netlist.Network) []networkView {
	views := make([]networkView, 0, len(networks))
	for _, n := range networks {
		views = append(views, newNetworkView(n))
	}
	return views
}
