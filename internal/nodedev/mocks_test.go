package nodedev

import (
	"fmt"
	"sort"

	"github.com/jbweber/virtinst/internal/libvirt"
)

// mockSource is a map-backed node device source.
type mockSource struct {
	devices map[string]string

	listErr error
	hasErr  error
	xmlErr  map[string]error

	// Call tracking
	listCalls int
}

func newMockSource() *mockSource {
	return &mockSource{
		devices: map[string]string{
			"computer":         computerXML,
			"pci_0000_00_19_0": pciNICXML,
			"pci_0000_02_00_0": pciGPUXML,
			"usb_3_4":          usbDeviceXML("usb_3_4", 3, 4, "0x1234", "0x5678"),
			"usb_1_2":          usbDeviceXML("usb_1_2", 1, 2, "0x046d", "0xc52b"),
		},
		xmlErr: map[string]error{},
	}
}

func (m *mockSource) ListNodeDevices() ([]string, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	names := make([]string, 0, len(m.devices))
	for name := range m.devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *mockSource) HasNodeDevice(name string) (bool, error) {
	if m.hasErr != nil {
		return false, m.hasErr
	}
	_, ok := m.devices[name]
	return ok, nil
}

func (m *mockSource) NodeDeviceXML(name string) (string, error) {
	if err := m.xmlErr[name]; err != nil {
		return "", err
	}
	xml, ok := m.devices[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", libvirt.ErrNodeDeviceNotFound, name)
	}
	return xml, nil
}

const computerXML = `<device>
  <name>computer</name>
  <capability type='system'>
    <hardware>
      <vendor>QEMU</vendor>
    </hardware>
  </capability>
</device>`

const pciNICXML = `<device>
  <name>pci_0000_00_19_0</name>
  <parent>computer</parent>
  <capability type='pci'>
    <domain>0</domain>
    <bus>0</bus>
    <slot>25</slot>
    <function>0</function>
    <product id='0x1502'>82579LM Gigabit Network Connection</product>
    <vendor id='0x8086'>Intel Corporation</vendor>
  </capability>
</device>`

const pciGPUXML = `<device>
  <name>pci_0000_02_00_0</name>
  <parent>computer</parent>
  <capability type='pci'>
    <domain>0</domain>
    <bus>2</bus>
    <slot>0</slot>
    <function>0</function>
    <product id='0x1c82'>GP107</product>
    <vendor id='0x10de'>NVIDIA Corporation</vendor>
  </capability>
</device>`

func usbDeviceXML(name string, bus, device int, vendor, product string) string {
	return fmt.Sprintf(`<device>
  <name>%s</name>
  <parent>usb_usb%d</parent>
  <capability type='usb_device'>
    <bus>%d</bus>
    <device>%d</device>
    <product id='%s'>Widget</product>
    <vendor id='%s'>Acme</vendor>
  </capability>
</device>`, name, bus, bus, device, product, vendor)
}
