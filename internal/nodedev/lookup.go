// Package nodedev resolves hostdev strings to libvirt node devices.
//
// A hostdev may be given as:
//
//	pci_0000_00_19_0     node device name
//	0x1234:0x5678        USB vendor:product (0x prefix optional)
//	003.004              USB bus.device
//	0000:00:19.0         PCI [domain:]bus:slot.function
package nodedev

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"libvirt.org/go/libvirtxml"

	"github.com/jbweber/virtinst/internal/libvirt"
)

// ErrInvalidHostdev matches every error caused by the hostdev string itself
// rather than by the connection.
var ErrInvalidHostdev = errors.New("invalid hostdev")

// HostdevError reports a hostdev that does not resolve to exactly one device.
type HostdevError struct {
	Hostdev string
	Reason  string
}

func (e *HostdevError) Error() string {
	return e.Reason
}

// Is makes errors.Is(err, ErrInvalidHostdev) hold.
func (e *HostdevError) Is(target error) bool {
	return target == ErrInvalidHostdev
}

// Source lists node devices and their XML.
//
// In production, this is satisfied by *libvirt.Client.
// In tests, this is satisfied by mock implementations.
type Source interface {
	ListNodeDevices() ([]string, error)
	HasNodeDevice(name string) (bool, error)

	// NodeDeviceXML wraps libvirt.ErrNodeDeviceNotFound when the device
	// is gone.
	NodeDeviceXML(name string) (string, error)
}

// Capability names as reported by libvirt.
const (
	CapPCI       = "pci"
	CapUSBDevice = "usb_device"
	CapOther     = "other"
)

// Device is a resolved host device.
type Device struct {
	Name       string
	Capability string
	Vendor     string
	Product    string
}

var (
	usbVendorProductRe = regexp.MustCompile(`^(?:0x)?([0-9a-fA-F]{1,4}):(?:0x)?([0-9a-fA-F]{1,4})$`)
	usbBusDeviceRe     = regexp.MustCompile(`^([0-9]{1,3})\.([0-9]{1,3})$`)
	pciAddressRe       = regexp.MustCompile(`^(?:([0-9a-fA-F]{1,4}):)?([0-9a-fA-F]{1,2}):([0-9a-fA-F]{1,2})\.([0-7])$`)
)

// Resolver looks up hostdevs against a connection.
type Resolver struct {
	src    Source
	logger zerolog.Logger
}

// NewResolver returns a Resolver backed by src.
func NewResolver(src Source, logger zerolog.Logger) *Resolver {
	return &Resolver{src: src, logger: logger}
}

type matcher func(d *libvirtxml.NodeDevice) bool

// Lookup resolves hostdev to a single node device. Errors caused by the
// hostdev string match ErrInvalidHostdev; anything else is a connection
// failure.
func (r *Resolver) Lookup(hostdev string) (*Device, error) {
	exists, err := r.src.HasNodeDevice(hostdev)
	if err != nil {
		return nil, err
	}
	if exists {
		r.logger.Debug().Str("hostdev", hostdev).Msg("matched node device by name")
		return r.load(hostdev)
	}

	match, kind := parseHostdev(hostdev)
	if match == nil {
		return nil, &HostdevError{
			Hostdev: hostdev,
			Reason:  fmt.Sprintf("did not find a matching node device for '%s'", hostdev),
		}
	}
	r.logger.Debug().Str("hostdev", hostdev).Str("form", kind).Msg("searching node devices")

	names, err := r.src.ListNodeDevices()
	if err != nil {
		return nil, err
	}

	var found []*libvirtxml.NodeDevice
	for _, name := range names {
		d, err := r.parse(name)
		if errors.Is(err, libvirt.ErrNodeDeviceNotFound) {
			r.logger.Debug().Str("device", name).Msg("node device went away while searching")
			continue
		}
		if err != nil {
			return nil, err
		}
		if match(d) {
			found = append(found, d)
		}
	}

	switch len(found) {
	case 0:
		return nil, &HostdevError{
			Hostdev: hostdev,
			Reason:  fmt.Sprintf("did not find a matching node device for '%s'", hostdev),
		}
	case 1:
		return toDevice(found[0]), nil
	default:
		return nil, &HostdevError{
			Hostdev: hostdev,
			Reason:  fmt.Sprintf("'%s' corresponds to %d node devices", hostdev, len(found)),
		}
	}
}

func (r *Resolver) parse(name string) (*libvirtxml.NodeDevice, error) {
	xml, err := r.src.NodeDeviceXML(name)
	if err != nil {
		return nil, err
	}

	var d libvirtxml.NodeDevice
	if err := d.Unmarshal(xml); err != nil {
		return nil, fmt.Errorf("failed to parse node device %s: %w", name, err)
	}
	if d.Name == "" {
		d.Name = name
	}
	return &d, nil
}

func (r *Resolver) load(name string) (*Device, error) {
	d, err := r.parse(name)
	if err != nil {
		return nil, err
	}
	return toDevice(d), nil
}

func toDevice(d *libvirtxml.NodeDevice) *Device {
	dev := &Device{Name: d.Name, Capability: CapOther}
	switch {
	case d.Capability.PCI != nil:
		dev.Capability = CapPCI
		dev.Vendor = d.Capability.PCI.Vendor.ID
		dev.Product = d.Capability.PCI.Product.ID
	case d.Capability.USBDevice != nil:
		dev.Capability = CapUSBDevice
		dev.Vendor = d.Capability.USBDevice.Vendor.ID
		dev.Product = d.Capability.USBDevice.Product.ID
	}
	return dev
}

// parseHostdev returns a matcher for the address forms of hostdev, or nil
// if it is not an address.
func parseHostdev(hostdev string) (matcher, string) {
	if m := usbVendorProductRe.FindStringSubmatch(hostdev); m != nil {
		vendor, product := hexValue(m[1]), hexValue(m[2])
		return func(d *libvirtxml.NodeDevice) bool {
			usb := d.Capability.USBDevice
			return usb != nil && hexValue(usb.Vendor.ID) == vendor && hexValue(usb.Product.ID) == product
		}, "usb vendor:product"
	}

	if m := usbBusDeviceRe.FindStringSubmatch(hostdev); m != nil {
		bus, _ := strconv.Atoi(m[1])
		device, _ := strconv.Atoi(m[2])
		return func(d *libvirtxml.NodeDevice) bool {
			usb := d.Capability.USBDevice
			return usb != nil && usb.Bus == bus && usb.Device == device
		}, "usb bus.device"
	}

	if m := pciAddressRe.FindStringSubmatch(hostdev); m != nil {
		domain := int64(0)
		if m[1] != "" {
			domain = hexValue(m[1])
		}
		bus, slot, function := hexValue(m[2]), hexValue(m[3]), hexValue(m[4])
		return func(d *libvirtxml.NodeDevice) bool {
			pci := d.Capability.PCI
			return pci != nil &&
				uintValue(pci.Domain) == domain &&
				uintValue(pci.Bus) == bus &&
				uintValue(pci.Slot) == slot &&
				uintValue(pci.Function) == function
		}, "pci address"
	}

	return nil, ""
}

// hexValue parses s as hex with an optional 0x prefix; -1 if invalid.
func hexValue(s string) int64 {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	v, err := strconv.ParseInt(s, 16, 64)
	if err != nil {
		return -1
	}
	return v
}

func uintValue(p *uint) int64 {
	if p == nil {
		return -1
	}
	return int64(*p)
}
