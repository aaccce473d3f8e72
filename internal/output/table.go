package output

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jbweber/virtinst/api/v1alpha1"
	"github.com/jbweber/virtinst/internal/netlist"
)

// TableFormatter formats resources as human-readable tables.
type TableFormatter struct {
	// NoHeaders omits the header row.
	NoHeaders bool

	// now is overridden in tests.
	now func() time.Time
}

// FormatInstallation formats a single Installation as a table row.
func (f *TableFormatter) FormatInstallation(inst *v1alpha1.Installation) (string, error) {
	return f.FormatInstallationList([]*v1alpha1.Installation{inst})
}

// FormatInstallationList formats Installations as a table.
func (f *TableFormatter) FormatInstallationList(insts []*v1alpha1.Installation) (string, error) {
	if len(insts) == 0 {
		return "No installations found\n", nil
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "NAME\tPHASE\tMEDIA\tDISTRO\tBOOT\tMEMORY\tAGE")
	}

	for _, inst := range insts {
		memory := humanize.IBytes(uint64(inst.GetMemoryMiB()) * humanize.MiByte)

		age := "-"
		if !inst.CreationTimestamp.IsZero() {
			age = strings.TrimSpace(humanize.RelTime(inst.CreationTimestamp.Time, f.clock(), "", ""))
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			inst.Name,
			dash(string(inst.Status.Phase)),
			dash(inst.Status.MediaType),
			dash(inst.Status.Distro),
			dash(inst.Status.BootDevice),
			memory,
			age)
	}

	_ = w.Flush()
	return buf.String(), nil
}

// FormatNetworkList formats networks as a table.
func (f *TableFormatter) FormatNetworkList(networks []netlist.Network) (string, error) {
	if len(networks) == 0 {
		return "No networks defined\n", nil
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "NAME\tSTATE\tAUTOSTART\tBRIDGE\tIPV4\tFORWARD")
	}

	for _, n := range networks {
		v := newNetworkView(n)
		state := "inactive"
		if n.Active {
			state = "active"
		}
		autostart := "no"
		if n.Autostart {
			autostart = "yes"
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			n.Name, state, autostart, dash(n.Bridge), dash(v.IPv4), n.PrettyForwardMode())
	}

	_ = w.Flush()
	return buf.String(), nil
}

func (f *TableFormatter) clock() time.Time {
	if f.now != nil {
		return f.now()
	}
	return time.Now()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
