package netlist

import (
	"fmt"
	"sort"
)

type mockNetwork struct {
	xml       string
	autostart bool
	active    bool
	bridge    string
	bridgeErr error
}

// mockSource is a map-backed network source.
type mockSource struct {
	networks map[string]*mockNetwork

	listErr error
	xmlErr  error
}

func (m *mockSource) ListNetworks() ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	names := make([]string, 0, len(m.networks))
	for name := range m.networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *mockSource) get(name string) (*mockNetwork, error) {
	n, ok := m.networks[name]
	if !ok {
		return nil, fmt.Errorf("network %s not found", name)
	}
	return n, nil
}

func (m *mockSource) NetworkXML(name string) (string, error) {
	if m.xmlErr != nil {
		return "", m.xmlErr
	}
	n, err := m.get(name)
	if err != nil {
		return "", err
	}
	return n.xml, nil
}

func (m *mockSource) NetworkAutostart(name string) (bool, error) {
	n, err := m.get(name)
	if err != nil {
		return false, err
	}
	return n.autostart, nil
}

func (m *mockSource) NetworkActive(name string) (bool, error) {
	n, err := m.get(name)
	if err != nil {
		return false, err
	}
	return n.active, nil
}

func (m *mockSource) NetworkBridge(name string) (string, error) {
	n, err := m.get(name)
	if err != nil {
		return "", err
	}
	if n.bridgeErr != nil {
		return "", n.bridgeErr
	}
	return n.bridge, nil
}

const defaultNetXML = `<network>
  <name>default</name>
  <forward mode='nat'/>
  <bridge name='virbr0' stp='on' delay='0'/>
  <ip address='192.168.122.1' netmask='255.255.255.0'>
    <dhcp>
      <range start='192.168.122.2' end='192.168.122.254'/>
    </dhcp>
  </ip>
</network>`

const isolatedNetXML = `<network>
  <name>isolated</name>
  <bridge name='virbr1'/>
  <ip address='10.10.0.1' prefix='16'/>
</network>`

const routedNetXML = `<network>
  <name>routed</name>
  <forward mode='route' dev='eth1'/>
  <bridge name='virbr2'/>
  <ip family='ipv6' address='fd00::1' prefix='64'/>
  <ip address='172.16.5.1' netmask='255.255.255.128'/>
</network>`

func newMockSource() *mockSource {
	return &mockSource{
		networks: map[string]*mockNetwork{
			"default":  {xml: defaultNetXML, autostart: true, active: true, bridge: "virbr0"},
			"isolated": {xml: isolatedNetXML, bridgeErr: fmt.Errorf("network is not active")},
			"routed":   {xml: routedNetXML, active: true, bridge: "virbr2"},
		},
	}
}
