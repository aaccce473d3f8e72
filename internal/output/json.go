package output

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jbweber/virtinst/api/v1alpha1"
	"github.com/jbweber/virtinst/internal/netlist"
)

// JSONFormatter formats resources as JSON.
type JSONFormatter struct{}

// FormatInstallation formats a single Installation as JSON.
func (f *JSONFormatter) FormatInstallation(inst *v1alpha1.Installation) (string, error) {
	v1alpha1.SetDefaultAPIVersion(inst)
	return marshalJSON(inst, "installation")
}

// FormatInstallationList formats Installations as a Kubernetes style list:
//
//	{
//	  "apiVersion": "virtinst.cofront.xyz/v1alpha1",
//	  "kind": "InstallationList",
//	  "items": [...]
//	}
func (f *JSONFormatter) FormatInstallationList(insts []*v1alpha1.Installation) (string, error) {
	for _, inst := range insts {
		v1alpha1.SetDefaultAPIVersion(inst)
	}
	if insts == nil {
		insts = []*v1alpha1.Installation{}
	}

	return marshalJSON(map[string]interface{}{
		"apiVersion": v1alpha1.GroupName + "/" + v1alpha1.Version,
		"kind":       v1alpha1.InstallationKind + "List",
		"items":      insts,
	}, "installation list")
}

// FormatNetworkList formats networks as a JSON array.
func (f *JSONFormatter) FormatNetworkList(networks []netlist.Network) (string, error) {
	return marshalJSON(networkViews(networks), "networks")
}

func marshalJSON(v interface{}, what string) (string, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(v); err != nil {
		return "", fmt.Errorf("failed to marshal %s to JSON: %w", what, err)
	}

	return buf.String(), nil
}
