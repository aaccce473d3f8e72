// Package loader reads and writes Installation resources as YAML.
package loader

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/virtinst/api/v1alpha1"
)

// LoadFromFile loads an Installation from a YAML file.
func LoadFromFile(path string) (*v1alpha1.Installation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	return LoadFromYAML(data)
}

// LoadFromYAML loads an Installation from YAML bytes. The document must be
// a virtinst.cofront.xyz/v1alpha1 Installation.
func LoadFromYAML(data []byte) (*v1alpha1.Installation, error) {
	var inst v1alpha1.Installation
	if err := yaml.Unmarshal(data, &inst); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	if inst.APIVersion == "" {
		return nil, fmt.Errorf("missing required field: apiVersion")
	}
	if inst.Kind == "" {
		return nil, fmt.Errorf("missing required field: kind")
	}

	expectedAPIVersion := v1alpha1.GroupName + "/" + v1alpha1.Version
	if inst.APIVersion != expectedAPIVersion {
		return nil, fmt.Errorf("unsupported apiVersion: %s (expected: %s)", inst.APIVersion, expectedAPIVersion)
	}
	if inst.Kind != v1alpha1.InstallationKind {
		return nil, fmt.Errorf("unsupported kind: %s (expected: %s)", inst.Kind, v1alpha1.InstallationKind)
	}

	inst.Normalize()
	if inst.Status.Phase == "" {
		inst.Status.Phase = v1alpha1.InstallPhasePending
	}

	if err := validateSpec(&inst); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &inst, nil
}

// SaveToFile writes an Installation, status included, to a YAML file.
func SaveToFile(inst *v1alpha1.Installation, path string) error {
	v1alpha1.SetDefaultAPIVersion(inst)

	data, err := yaml.Marshal(inst)
	if err != nil {
		return fmt.Errorf("failed to marshal installation to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}

// validateSpec checks the fields the installer cannot recover from. Whether
// the location itself is usable is decided by the installer.
func validateSpec(inst *v1alpha1.Installation) error {
	if inst.Name == "" {
		return fmt.Errorf("metadata.name is required")
	}

	if inst.Spec.Location == "" && !inst.Spec.CDROM {
		return fmt.Errorf("spec.location is required unless spec.cdrom is set")
	}

	if inst.Spec.LiveCD && !inst.Spec.CDROM {
		return fmt.Errorf("spec.livecd requires spec.cdrom")
	}

	seen := make(map[string]bool)
	for i, path := range inst.Spec.InitrdInjections {
		if strings.TrimSpace(path) == "" {
			return fmt.Errorf("spec.initrdInjections[%d] is empty", i)
		}
		if seen[path] {
			return fmt.Errorf("spec.initrdInjections[%d] %q is duplicated", i, path)
		}
		seen[path] = true
	}
	if len(inst.Spec.InitrdInjections) > 0 && inst.Spec.CDROM {
		return fmt.Errorf("spec.initrdInjections cannot be used with spec.cdrom")
	}

	if !strings.Contains(inst.Spec.ConnectionURI, "://") {
		return fmt.Errorf("spec.connectionURI %q is not a libvirt URI", inst.Spec.ConnectionURI)
	}

	return nil
}
