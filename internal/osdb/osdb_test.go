package osdb

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kdomanski/iso9660"
)

func mustDefault(t *testing.T) *DB {
	t.Helper()
	db, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	return db
}

func TestDefault(t *testing.T) {
	db := mustDefault(t)

	if len(db.List()) == 0 {
		t.Fatal("embedded database is empty")
	}
	o, ok := db.Get("fedora40")
	if !ok {
		t.Fatal("Get(fedora40) not found")
	}
	if o.Label != "Fedora Linux 40" {
		t.Errorf("Label = %q, want %q", o.Label, "Fedora Linux 40")
	}
	if _, ok := db.Get("nonexistent"); ok {
		t.Error("Get(nonexistent) found an entry")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "- label: x\n",
			wantErr: "missing name",
		},
		{
			name:    "duplicate",
			yaml:    "- name: a\n- name: a\n",
			wantErr: "duplicate",
		},
		{
			name:    "bad regexp",
			yaml:    "- name: a\n  mediaLabels: ['(']\n",
			wantErr: "invalid media label pattern",
		},
		{
			name:    "bad treeinfo regexp",
			yaml:    "- name: a\n  treeinfo:\n    - family: '['\n      version: '1'\n",
			wantErr: "invalid treeinfo family pattern",
		},
		{
			name:    "not a list",
			yaml:    "name: a\n",
			wantErr: "failed to unmarshal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLookupByLabel(t *testing.T) {
	db := mustDefault(t)

	tests := []struct {
		label string
		want  string
	}{
		{"Fedora-S-dvd-x86_64-40", "fedora40"},
		{"Fedora-WS-Live-41-1-4", "fedora41"},
		{"RHEL-9-4-0-BaseOS-x86_64", "rhel9.4"},
		{"RHEL-9-2-0-BaseOS-x86_64", "rhel9-unknown"},
		{"CentOS-Stream-9-BaseOS-x86_64", "centos-stream9"},
		{"Ubuntu-Server 24.04 LTS amd64", "ubuntu24.04"},
		{"Ubuntu 22.04.4 LTS amd64", "ubuntu22.04"},
		{"Debian 12.5.0 amd64 n", "debian12"},
		{"openSUSE-Leap-15.5-DVD-x86_64", "opensuse15.5"},
		{"CCCOMA_X64FRE_EN-US_DV9", "win11"},
		{"SOMETHING_ELSE", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := db.LookupByLabel(tt.label)
			if got != tt.want {
				t.Errorf("LookupByLabel(%q) = %q, want %q", tt.label, got, tt.want)
			}
			if ok != (tt.want != "") {
				t.Errorf("LookupByLabel(%q) ok = %v", tt.label, ok)
			}
		})
	}
}

func TestLookupByTreeinfo(t *testing.T) {
	db := mustDefault(t)

	tests := []struct {
		family, version string
		want            string
	}{
		{"Fedora", "40", "fedora40"},
		{"Red Hat Enterprise Linux", "9.4", "rhel9.4"},
		{"Red Hat Enterprise Linux", "9.2", "rhel9-unknown"},
		{"Red Hat Enterprise Linux", "8.10", "rhel8-unknown"},
		{"CentOS Stream", "9", "centos-stream9"},
		{"Rocky Linux", "9.4", "rocky9"},
		{"Fedora", "rawhide", ""},
		{"Unknown", "1", ""},
	}

	for _, tt := range tests {
		got, _ := db.LookupByTreeinfo(tt.family, tt.version)
		if got != tt.want {
			t.Errorf("LookupByTreeinfo(%q, %q) = %q, want %q", tt.family, tt.version, got, tt.want)
		}
	}
}

func TestLookupByDiskInfo(t *testing.T) {
	db := mustDefault(t)

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "ubuntu server",
			text: `Ubuntu-Server 24.04 LTS "Noble Numbat" - Release amd64 (20240423)`,
			want: "ubuntu24.04",
		},
		{
			name: "debian netinst",
			text: `Debian GNU/Linux 12.5.0 "Bookworm" - Official amd64 NETINST with firmware 20240210-11:27`,
			want: "debian12",
		},
		{
			name: "suse products with leading blank line",
			text: "\n/ openSUSE-Leap 15.6-1\n",
			want: "opensuse15.6",
		},
		{
			name: "empty",
			text: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := db.LookupByDiskInfo(tt.text)
			if got != tt.want {
				t.Errorf("LookupByDiskInfo() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLookupByMedia(t *testing.T) {
	db := mustDefault(t)

	writer, err := iso9660.NewWriter()
	if err != nil {
		t.Fatalf("failed to create ISO writer: %v", err)
	}
	defer func() { _ = writer.Cleanup() }()

	if err := writer.AddFile(strings.NewReader("kernel"), "casper/vmlinuz"); err != nil {
		t.Fatalf("failed to add file: %v", err)
	}

	isoPath := filepath.Join(t.TempDir(), "ubuntu.iso")
	out, err := os.Create(isoPath)
	if err != nil {
		t.Fatalf("failed to create ISO: %v", err)
	}
	if err := writer.WriteTo(out, "Ubuntu-Server 24.04 LTS amd64"); err != nil {
		t.Fatalf("failed to write ISO: %v", err)
	}
	_ = out.Close()

	got, err := db.LookupByMedia(isoPath)
	if err != nil {
		t.Fatalf("LookupByMedia() error = %v", err)
	}
	if got != "ubuntu24.04" {
		t.Errorf("LookupByMedia() = %q, want %q", got, "ubuntu24.04")
	}

	if _, err := db.LookupByMedia(filepath.Join(t.TempDir(), "missing.iso")); err == nil {
		t.Error("LookupByMedia(missing) expected error, got nil")
	}

	notISO := filepath.Join(t.TempDir(), "plain")
	if err := os.WriteFile(notISO, []byte("plain"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := db.LookupByMedia(notISO); err == nil {
		t.Error("LookupByMedia(not an ISO) expected error, got nil")
	}
}
