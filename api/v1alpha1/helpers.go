package v1alpha1

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// GroupName is the API group for virtinst resources.
	GroupName = "virtinst.cofront.xyz"

	// Version is the API version.
	Version = "v1alpha1"

	// InstallationKind is the kind string for Installation resources.
	InstallationKind = "Installation"
)

// Spec defaults.
const (
	DefaultConnectionURI = "qemu:///system"
	DefaultMemoryMiB     = 2048
	DefaultVCPUs         = 1
)

// NewInstallation creates an Installation with TypeMeta, ObjectMeta and
// spec defaults filled in.
func NewInstallation(name string) *Installation {
	return &Installation{
		TypeMeta: TypeMeta{
			APIVersion: GroupName + "/" + Version,
			Kind:       InstallationKind,
		},
		ObjectMeta: ObjectMeta{
			Name:              name,
			UID:               uuid.New().String(),
			CreationTimestamp: Time{Time: time.Now()},
			Generation:        1,
		},
		Spec: InstallationSpec{
			ConnectionURI: DefaultConnectionURI,
			MemoryMiB:     DefaultMemoryMiB,
			VCPUs:         DefaultVCPUs,
		},
		Status: InstallationStatus{
			Phase: InstallPhasePending,
		},
	}
}

// SetDefaultAPIVersion fills in apiVersion and kind when a file omits them.
func SetDefaultAPIVersion(inst *Installation) {
	if inst.APIVersion == "" {
		inst.APIVersion = GroupName + "/" + Version
	}
	if inst.Kind == "" {
		inst.Kind = InstallationKind
	}
}

// GetConnectionURI returns the hypervisor URI with default fallback.
func (inst *Installation) GetConnectionURI() string {
	if inst.Spec.ConnectionURI == "" {
		return DefaultConnectionURI
	}
	return inst.Spec.ConnectionURI
}

// GetMemoryMiB returns the install memory with default fallback.
func (inst *Installation) GetMemoryMiB() uint {
	if inst.Spec.MemoryMiB == 0 {
		return DefaultMemoryMiB
	}
	return inst.Spec.MemoryMiB
}

// GetVCPUs returns the install CPU count with default fallback.
func (inst *Installation) GetVCPUs() uint {
	if inst.Spec.VCPUs == 0 {
		return DefaultVCPUs
	}
	return inst.Spec.VCPUs
}

// SetPhase sets the installation phase in status.
func (inst *Installation) SetPhase(phase InstallPhase) {
	inst.Status.Phase = phase
}

// GetPhase returns the current installation phase.
func (inst *Installation) GetPhase() InstallPhase {
	return inst.Status.Phase
}

// UpdateObservedGeneration updates status.observedGeneration to match metadata.generation.
func (inst *Installation) UpdateObservedGeneration() {
	inst.Status.ObservedGeneration = inst.Generation
}

// ResetStatus drops everything a previous run recorded.
func (inst *Installation) ResetStatus() {
	inst.Status = InstallationStatus{Phase: InstallPhasePending}
}

// Normalize trims user input and fills in spec defaults.
func (inst *Installation) Normalize() {
	inst.Name = strings.ToLower(strings.TrimSpace(inst.Name))
	inst.Spec.Location = strings.TrimSpace(inst.Spec.Location)

	// Kernel arguments are kept verbatim, only blank entries are dropped.
	args := inst.Spec.ExtraArgs[:0]
	for _, a := range inst.Spec.ExtraArgs {
		if strings.TrimSpace(a) != "" {
			args = append(args, a)
		}
	}
	if len(args) == 0 {
		args = nil
	}
	inst.Spec.ExtraArgs = args

	if inst.Spec.ConnectionURI == "" {
		inst.Spec.ConnectionURI = DefaultConnectionURI
	}
	if inst.Spec.MemoryMiB == 0 {
		inst.Spec.MemoryMiB = DefaultMemoryMiB
	}
	if inst.Spec.VCPUs == 0 {
		inst.Spec.VCPUs = DefaultVCPUs
	}
}
