// Package probe reports how hostdev strings resolve to node devices.
package probe

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/jbweber/virtinst/internal/nodedev"
)

// Resolver resolves one hostdev string.
type Resolver interface {
	Lookup(hostdev string) (*nodedev.Device, error)
}

// Result is the outcome for a single hostdev.
type Result struct {
	Hostdev string
	Device  string
	Err     error
}

// OK reports whether the hostdev resolved.
func (r Result) OK() bool {
	return r.Err == nil
}

// Run probes every hostdev in order and writes one line per item to w.
// A hostdev that does not resolve is reported and the batch continues;
// any other error stops the run and is returned along with the results
// gathered so far.
func Run(w io.Writer, r Resolver, hostdevs []string) ([]Result, error) {
	if _, err := fmt.Fprint(w, "\nProbing devices now:\n\n"); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(hostdevs))
	for _, hostdev := range hostdevs {
		dev, err := r.Lookup(hostdev)
		if err != nil {
			if !errors.Is(err, nodedev.ErrInvalidHostdev) {
				return results, fmt.Errorf("failed to query hostdev %s: %w", hostdev, err)
			}
			results = append(results, Result{Hostdev: hostdev, Err: err})
			fmt.Fprintf(w, "%s - failed to query hostdev %s - %s\n", color.RedString("FAIL"), hostdev, err)
			continue
		}

		results = append(results, Result{Hostdev: hostdev, Device: dev.Name})
		fmt.Fprintf(w, "%s   - hostdev %s maps to %s\n", color.GreenString("OK"), hostdev, dev.Name)
	}

	return results, nil
}
