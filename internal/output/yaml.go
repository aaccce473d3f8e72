package output

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/virtinst/api/v1alpha1"
	"github.com/jbweber/virtinst/internal/netlist"
)

// YAMLFormatter formats resources as YAML.
type YAMLFormatter struct{}

// FormatInstallation formats a single Installation as YAML. The output can
// be fed back to the loader.
func (f *YAMLFormatter) FormatInstallation(inst *v1alpha1.Installation) (string, error) {
	v1alpha1.SetDefaultAPIVersion(inst)

	data, err := yaml.Marshal(inst)
	if err != nil {
		return "", fmt.Errorf("failed to marshal installation to YAML: %w", err)
	}

	return string(data), nil
}

// FormatInstallationList formats Installations as a YAML stream, one
// document per installation.
func (f *YAMLFormatter) FormatInstallationList(insts []*v1alpha1.Installation) (string, error) {
	var buf bytes.Buffer

	for i, inst := range insts {
		v1alpha1.SetDefaultAPIVersion(inst)

		data, err := yaml.Marshal(inst)
		if err != nil {
			return "", fmt.Errorf("failed to marshal installation %s to YAML: %w", inst.Name, err)
		}

		if i > 0 {
			buf.WriteString("---\n")
		}
		buf.Write(data)
	}

	return buf.String(), nil
}

// FormatNetworkList formats networks as a YAML sequence.
func (f *YAMLFormatter) FormatNetworkList(networks []netlist.Network) (string, error) {
	data, err := yaml.Marshal(networkViews(networks))
	if err != nil {
		return "", fmt.Errorf("failed to marshal networks to YAML: %w", err)
	}
	return string(data), nil
}
