package libvirt

import (
	"errors"
	"fmt"

	"github.com/digitalocean/go-libvirt"
)

// ErrNodeDeviceNotFound is wrapped by node device queries for a device
// the host does not have, e.g. one unplugged after it was listed.
var ErrNodeDeviceNotFound = errors.New("node device not found")

func isNoNodeDevice(err error) bool {
	var lerr libvirt.Error
	return errors.As(err, &lerr) && lerr.Code == uint32(libvirt.ErrNoNodeDevice)
}

// ListNetworks returns the names of all defined networks, active or not.
func (c *Client) ListNetworks() ([]string, error) {
	nets, _, err := c.libvirt.ConnectListAllNetworks(1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list networks: %w", err)
	}

	names := make([]string, 0, len(nets))
	for _, n := range nets {
		names = append(names, n.Name)
	}
	return names, nil
}

func (c *Client) lookupNetwork(name string) (libvirt.Network, error) {
	n, err := c.libvirt.NetworkLookupByName(name)
	if err != nil {
		return libvirt.Network{}, fmt.Errorf("failed to lookup network %s: %w", name, err)
	}
	return n, nil
}

// NetworkXML returns the XML description of the named network.
func (c *Client) NetworkXML(name string) (string, error) {
	n, err := c.lookupNetwork(name)
	if err != nil {
		return "", err
	}
	xml, err := c.libvirt.NetworkGetXMLDesc(n, 0)
	if err != nil {
		return "", fmt.Errorf("failed to get XML for network %s: %w", name, err)
	}
	return xml, nil
}

// NetworkAutostart reports whether the named network starts on boot.
func (c *Client) NetworkAutostart(name string) (bool, error) {
	n, err := c.lookupNetwork(name)
	if err != nil {
		return false, err
	}
	autostart, err := c.libvirt.NetworkGetAutostart(n)
	if err != nil {
		return false, fmt.Errorf("failed to get autostart for network %s: %w", name, err)
	}
	return autostart == 1, nil
}

// NetworkActive reports whether the named network is running.
func (c *Client) NetworkActive(name string) (bool, error) {
	n, err := c.lookupNetwork(name)
	if err != nil {
		return false, err
	}
	active, err := c.libvirt.NetworkIsActive(n)
	if err != nil {
		return false, fmt.Errorf("failed to get state of network %s: %w", name, err)
	}
	return active == 1, nil
}

// NetworkBridge returns the bridge device of the named network. Inactive
// networks may not have one yet.
func (c *Client) NetworkBridge(name string) (string, error) {
	n, err := c.lookupNetwork(name)
	if err != nil {
		return "", err
	}
	bridge, err := c.libvirt.NetworkGetBridgeName(n)
	if err != nil {
		return "", fmt.Errorf("failed to get bridge for network %s: %w", name, err)
	}
	return bridge, nil
}

// ListNodeDevices returns the names of all host devices.
func (c *Client) ListNodeDevices() ([]string, error) {
	devs, _, err := c.libvirt.ConnectListAllNodeDevices(1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list node devices: %w", err)
	}

	names := make([]string, 0, len(devs))
	for _, d := range devs {
		names = append(names, d.Name)
	}
	return names, nil
}

// NodeDeviceXML returns the XML description of the named host device.
func (c *Client) NodeDeviceXML(name string) (string, error) {
	xml, err := c.libvirt.NodeDeviceGetXMLDesc(name, 0)
	if err != nil {
		if isNoNodeDevice(err) {
			return "", fmt.Errorf("%w: %s", ErrNodeDeviceNotFound, name)
		}
		return "", fmt.Errorf("failed to get XML for node device %s: %w", name, err)
	}
	return xml, nil
}

// HasNodeDevice reports whether a host device with the given name exists.
func (c *Client) HasNodeDevice(name string) (bool, error) {
	if _, err := c.libvirt.NodeDeviceLookupByName(name); err != nil {
		if isNoNodeDevice(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to lookup node device %s: %w", name, err)
	}
	return true, nil
}
