package v1alpha1

// Installation describes one install attempt: where the install media
// lives, how it is attached to the guest, and what preparing it produced.
//
// Spec is read from a YAML file. Status is filled in by the virtinst CLI as
// the installation is validated, detected and prepared.
//
// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:shortName=inst
// +kubebuilder:printcolumn:name="Phase",type=string,JSONPath=`.status.phase`
// +kubebuilder:printcolumn:name="Media",type=string,JSONPath=`.status.mediaType`
// +kubebuilder:printcolumn:name="Distro",type=string,JSONPath=`.status.distro`
type Installation struct {
	TypeMeta `json:",inline" yaml:",inline"`

	// +optional
	ObjectMeta `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	Spec InstallationSpec `json:"spec" yaml:"spec"`

	// +optional
	Status InstallationStatus `json:"status,omitempty" yaml:"status,omitempty"`
}

// InstallationSpec defines the install media and the guest it boots.
//
// +k8s:deepcopy-gen=true
type InstallationSpec struct {
	// Location is a local ISO, optical device or directory tree, or an
	// http, https or ftp URL of an install tree. Empty only with CDROM,
	// meaning the media is already attached to the guest.
	// +optional
	Location string `json:"location,omitempty" yaml:"location,omitempty"`

	// CDROM attaches the media to the guest as a cdrom instead of booting
	// the tree's kernel directly.
	// +optional
	CDROM bool `json:"cdrom,omitempty" yaml:"cdrom,omitempty"`

	// LiveCD runs the guest from the media without installing.
	// +optional
	LiveCD bool `json:"livecd,omitempty" yaml:"livecd,omitempty"`

	// InitrdInjections are local files appended to the install initrd,
	// for example a kickstart file.
	// +optional
	InitrdInjections []string `json:"initrdInjections,omitempty" yaml:"initrdInjections,omitempty"`

	// ExtraArgs are appended to the install kernel command line.
	// +optional
	ExtraArgs []string `json:"extraArgs,omitempty" yaml:"extraArgs,omitempty"`

	// ConnectionURI is the hypervisor to install on.
	// +optional
	// +kubebuilder:default="qemu:///system"
	ConnectionURI string `json:"connectionURI,omitempty" yaml:"connectionURI,omitempty"`

	// MemoryMiB is the guest memory during install.
	// +optional
	// +kubebuilder:default=2048
	MemoryMiB uint `json:"memoryMiB,omitempty" yaml:"memoryMiB,omitempty"`

	// VCPUs is the guest CPU count during install.
	// +optional
	// +kubebuilder:default=1
	VCPUs uint `json:"vcpus,omitempty" yaml:"vcpus,omitempty"`
}

// InstallationStatus is what validating and preparing the media found.
//
// +k8s:deepcopy-gen=true
type InstallationStatus struct {
	// +optional
	// +kubebuilder:validation:Enum=Pending;Validated;Prepared;Failed
	Phase InstallPhase `json:"phase,omitempty" yaml:"phase,omitempty"`

	// MediaType is the classification of spec.location, for display.
	// +optional
	MediaType string `json:"mediaType,omitempty" yaml:"mediaType,omitempty"`

	// BootDevice is the device the guest boots from during install.
	// +optional
	BootDevice string `json:"bootDevice,omitempty" yaml:"bootDevice,omitempty"`

	// Distro is the OS database name of the media, when detected.
	// +optional
	Distro string `json:"distro,omitempty" yaml:"distro,omitempty"`

	// CDROMPath is the media attached to the guest cdrom.
	// +optional
	CDROMPath string `json:"cdromPath,omitempty" yaml:"cdromPath,omitempty"`

	// Kernel and Initrd are the paths the guest boots during install.
	// +optional
	Kernel string `json:"kernel,omitempty" yaml:"kernel,omitempty"`
	// +optional
	Initrd string `json:"initrd,omitempty" yaml:"initrd,omitempty"`

	// KernelArgs is the full install kernel command line.
	// +optional
	KernelArgs []string `json:"kernelArgs,omitempty" yaml:"kernelArgs,omitempty"`

	// +optional
	// +listType=map
	// +listMapKey=type
	Conditions []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`

	// +optional
	ObservedGeneration int64 `json:"observedGeneration,omitempty" yaml:"observedGeneration,omitempty"`
}

// InstallPhase is the progress of an Installation.
type InstallPhase string

const (
	// InstallPhasePending means the installation has not been looked at yet.
	InstallPhasePending InstallPhase = "Pending"

	// InstallPhaseValidated means the location was accepted.
	InstallPhaseValidated InstallPhase = "Validated"

	// InstallPhasePrepared means the boot media is ready for the guest.
	InstallPhasePrepared InstallPhase = "Prepared"

	// InstallPhaseFailed means validation or preparation failed.
	InstallPhaseFailed InstallPhase = "Failed"
)

// Condition types for Installation resources.
const (
	// ConditionLocationValid reports whether spec.location was accepted.
	ConditionLocationValid = "LocationValid"

	// ConditionDistroDetected reports whether the media OS was identified.
	ConditionDistroDetected = "DistroDetected"

	// ConditionMediaPrepared reports whether boot media was fetched.
	ConditionMediaPrepared = "MediaPrepared"
)

// DeepCopy creates a deep copy of Installation.
func (in *Installation) DeepCopy() *Installation {
	if in == nil {
		return nil
	}
	out := new(Installation)
	out.TypeMeta = *in.TypeMeta.DeepCopy()
	out.ObjectMeta = *in.ObjectMeta.DeepCopy()
	out.Spec = *in.Spec.DeepCopy()
	out.Status = *in.Status.DeepCopy()
	return out
}

// DeepCopy creates a deep copy of InstallationSpec.
func (in *InstallationSpec) DeepCopy() *InstallationSpec {
	if in == nil {
		return nil
	}
	out := new(InstallationSpec)
	*out = *in
	out.InitrdInjections = copyStrings(in.InitrdInjections)
	out.ExtraArgs = copyStrings(in.ExtraArgs)
	return out
}

// DeepCopy creates a deep copy of InstallationStatus.
func (in *InstallationStatus) DeepCopy() *InstallationStatus {
	if in == nil {
		return nil
	}
	out := new(InstallationStatus)
	*out = *in
	out.KernelArgs = copyStrings(in.KernelArgs)

	if in.Conditions != nil {
		out.Conditions = make([]Condition, len(in.Conditions))
		for i := range in.Conditions {
			out.Conditions[i] = *in.Conditions[i].DeepCopy()
		}
	}

	return out
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
