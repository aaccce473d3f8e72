package install

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog"

	"github.com/jbweber/virtinst/api/v1alpha1"
	"github.com/jbweber/virtinst/internal/device"
	"github.com/jbweber/virtinst/internal/libvirt"
)

// DomainXML returns the install phase domain for a prepared installation.
// The cdrom media is inspected on this host so that an optical drive is
// attached as a block device and an ISO image as a file.
func DomainXML(inst *v1alpha1.Installation) (string, error) {
	return domainXML(inst, os.Stat)
}

func domainXML(inst *v1alpha1.Installation, stat func(string) (fs.FileInfo, error)) (string, error) {
	if inst.GetPhase() != v1alpha1.InstallPhasePrepared {
		return "", fmt.Errorf("installation %s is %s, not Prepared", inst.Name, inst.GetPhase())
	}

	d := libvirt.InstallDomain{
		Name:       inst.Name,
		MemoryMiB:  inst.GetMemoryMiB(),
		VCPUs:      inst.GetVCPUs(),
		BootDevice: inst.Status.BootDevice,
		Kernel:     inst.Status.Kernel,
		Initrd:     inst.Status.Initrd,
	}
	if inst.Status.KernelArgs != "" {
		d.ExtraArgs = []string{inst.Status.KernelArgs}
	}
	if inst.Status.CDROMPath != "" {
		cdrom := device.NewCDROM(inst.Status.CDROMPath)
		cdrom.Stat = stat
		if err := cdrom.Validate(); err != nil {
			return "", fmt.Errorf("invalid cdrom media: %w", err)
		}
		d.CDROM = cdrom
	}

	return libvirt.GenerateInstallDomainXML(d)
}

// Define defines the install phase domain of a prepared installation. The
// domain is not started.
func Define(lv libvirtClient, inst *v1alpha1.Installation, logger zerolog.Logger) error {
	if _, err := lv.DomainLookupByName(inst.Name); err == nil {
		return fmt.Errorf("domain '%s' already exists", inst.Name)
	}

	xml, err := DomainXML(inst)
	if err != nil {
		return fmt.Errorf("failed to generate domain XML: %w", err)
	}

	if _, err := lv.DomainDefineXML(xml); err != nil {
		return fmt.Errorf("failed to define domain: %w", err)
	}

	logger.Info().Str("domain", inst.Name).Msg("defined install domain")
	return nil
}
