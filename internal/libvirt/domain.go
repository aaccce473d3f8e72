package libvirt

import (
	"fmt"
	"strings"

	"libvirt.org/go/libvirtxml"

	"github.com/jbweber/virtinst/internal/device"
	"github.com/jbweber/virtinst/internal/naming"
)

// Boot devices understood by GenerateInstallDomainXML.
const (
	BootCDROM = "cdrom"
	BootHD    = "hd"
)

// InstallDomain describes the install phase of a guest.
type InstallDomain struct {
	Name      string
	MemoryMiB uint
	VCPUs     uint

	// BootDevice is BootCDROM or BootHD. Ignored when Kernel is set.
	BootDevice string

	// Direct kernel boot.
	Kernel    string
	Initrd    string
	ExtraArgs []string

	// CDROM is attached as the first sata disk when set.
	CDROM *device.Disk
}

// GenerateInstallOS returns the <os> element for the install phase: direct
// kernel boot when a kernel was prepared, otherwise the given boot device.
func GenerateInstallOS(d InstallDomain) *libvirtxml.DomainOS {
	domOS := &libvirtxml.DomainOS{
		Type: &libvirtxml.DomainOSType{
			Arch: "x86_64",
			Type: "hvm",
		},
	}

	if d.Kernel != "" {
		domOS.Kernel = d.Kernel
		domOS.Initrd = d.Initrd
		domOS.Cmdline = strings.Join(d.ExtraArgs, " ")
		return domOS
	}

	dev := d.BootDevice
	if dev == "" {
		dev = BootHD
	}
	domOS.BootDevices = []libvirtxml.DomainBootDevice{{Dev: dev}}
	return domOS
}

// GenerateInstallDomainXML generates libvirt domain XML for the install phase.
func GenerateInstallDomainXML(d InstallDomain) (string, error) {
	if d.Name == "" {
		return "", fmt.Errorf("domain name is required")
	}
	if d.BootDevice != "" && d.BootDevice != BootCDROM && d.BootDevice != BootHD {
		return "", fmt.Errorf("unknown boot device %q", d.BootDevice)
	}

	domain := &libvirtxml.Domain{
		Type: "kvm",
		Name: d.Name,
		Memory: &libvirtxml.DomainMemory{
			Value: d.MemoryMiB,
			Unit:  "MiB",
		},
		VCPU: &libvirtxml.DomainVCPU{
			Placement: "static",
			Value:     d.VCPUs,
		},
		OS: GenerateInstallOS(d),
		Features: &libvirtxml.DomainFeatureList{
			ACPI: &libvirtxml.DomainFeature{},
			APIC: &libvirtxml.DomainFeatureAPIC{},
		},
		CPU: &libvirtxml.DomainCPU{
			Mode: "host-model",
		},
		Clock: &libvirtxml.DomainClock{
			Offset: "utc",
			Timer: []libvirtxml.DomainTimer{
				{Name: "rtc", TickPolicy: "catchup"},
				{Name: "pit", TickPolicy: "delay"},
				{Name: "hpet", Present: "no"},
			},
		},
		// The installer reboots into the installed system, which is a
		// separate definition.
		OnPoweroff: "destroy",
		OnReboot:   "destroy",
		OnCrash:    "destroy",
		Devices:    &libvirtxml.DomainDeviceList{},
	}

	if d.CDROM != nil {
		domain.Devices.Disks = append(domain.Devices.Disks, d.CDROM.DomainDisk(naming.DiskTarget("sd", 0)))
	}

	// Add serial console
	domain.Devices.Serials = []libvirtxml.DomainSerial{
		{
			Source: &libvirtxml.DomainChardevSource{
				Pty: &libvirtxml.DomainChardevSourcePty{},
			},
			Target: &libvirtxml.DomainSerialTarget{
				Port: func() *uint { p := uint(0); return &p }(),
			},
		},
	}
	domain.Devices.Consoles = []libvirtxml.DomainConsole{
		{
			Source: &libvirtxml.DomainChardevSource{
				Pty: &libvirtxml.DomainChardevSourcePty{},
			},
			Target: &libvirtxml.DomainConsoleTarget{
				Type: "serial",
				Port: func() *uint { p := uint(0); return &p }(),
			},
		},
	}

	xml, err := domain.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to marshal domain XML: %w", err)
	}

	return xml, nil
}
