// Package osdb identifies guest operating systems from their install media.
//
// The database is a small embedded table of known releases. Each entry
// carries regular expressions for the ISO volume label, the .treeinfo
// family/version pair and the free-form disk info files shipped on Debian,
// Ubuntu and SUSE media. Entries are tried in table order, so more specific
// releases are listed before their catch-all siblings.
package osdb

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/kdomanski/iso9660"
	"gopkg.in/yaml.v3"
)

//go:embed oslist.yaml
var osListYAML []byte

// TreeinfoMatch matches the family and version of a .treeinfo file.
type TreeinfoMatch struct {
	Family  string `yaml:"family"`
	Version string `yaml:"version"`
}

// OS is a single operating system entry.
type OS struct {
	Name        string          `yaml:"name"`
	Label       string          `yaml:"label"`
	Family      string          `yaml:"family"`
	MediaLabels []string        `yaml:"mediaLabels,omitempty"`
	Treeinfo    []TreeinfoMatch `yaml:"treeinfo,omitempty"`
	DiskInfo    []string        `yaml:"diskInfo,omitempty"`
}

type treeinfoPattern struct {
	family  *regexp.Regexp
	version *regexp.Regexp
}

type entry struct {
	os          OS
	mediaLabels []*regexp.Regexp
	treeinfo    []treeinfoPattern
	diskInfo    []*regexp.Regexp
}

// DB is a loaded OS database. It is read-only after construction.
type DB struct {
	entries []entry
	byName  map[string]int
}

// Default returns the embedded database.
func Default() (*DB, error) {
	return Parse(osListYAML)
}

// Parse builds a database from YAML.
func Parse(data []byte) (*DB, error) {
	var list []OS
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal OS list: %w", err)
	}

	db := &DB{byName: make(map[string]int, len(list))}
	for _, o := range list {
		if o.Name == "" {
			return nil, fmt.Errorf("OS entry missing name")
		}
		if _, dup := db.byName[o.Name]; dup {
			return nil, fmt.Errorf("duplicate OS entry: %s", o.Name)
		}

		e := entry{os: o}
		var err error
		// Volume labels match case-insensitively.
		if e.mediaLabels, err = compileAll(o.MediaLabels, "(?i)"); err != nil {
			return nil, fmt.Errorf("OS %s: invalid media label pattern: %w", o.Name, err)
		}
		if e.diskInfo, err = compileAll(o.DiskInfo, ""); err != nil {
			return nil, fmt.Errorf("OS %s: invalid disk info pattern: %w", o.Name, err)
		}
		for _, t := range o.Treeinfo {
			fam, err := regexp.Compile(t.Family)
			if err != nil {
				return nil, fmt.Errorf("OS %s: invalid treeinfo family pattern: %w", o.Name, err)
			}
			ver, err := regexp.Compile(t.Version)
			if err != nil {
				return nil, fmt.Errorf("OS %s: invalid treeinfo version pattern: %w", o.Name, err)
			}
			e.treeinfo = append(e.treeinfo, treeinfoPattern{family: fam, version: ver})
		}

		db.byName[o.Name] = len(db.entries)
		db.entries = append(db.entries, e)
	}

	return db, nil
}

func compileAll(patterns []string, flags string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(flags + p)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

// Get returns the entry with the given short name.
func (db *DB) Get(name string) (OS, bool) {
	i, ok := db.byName[name]
	if !ok {
		return OS{}, false
	}
	return db.entries[i].os, true
}

// List returns all entries in table order.
func (db *DB) List() []OS {
	out := make([]OS, len(db.entries))
	for i, e := range db.entries {
		out[i] = e.os
	}
	return out
}

// LookupByLabel matches an ISO volume label.
func (db *DB) LookupByLabel(label string) (string, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", false
	}
	for _, e := range db.entries {
		for _, re := range e.mediaLabels {
			if re.MatchString(label) {
				return e.os.Name, true
			}
		}
	}
	return "", false
}

// LookupByMedia reads the volume label of the ISO image or optical device
// at path and matches it. An unrecognised label is not an error: the
// returned name is empty.
func (db *DB) LookupByMedia(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open media %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	img, err := iso9660.OpenImage(f)
	if err != nil {
		return "", fmt.Errorf("failed to read ISO image %s: %w", path, err)
	}

	label, err := img.Label()
	if err != nil {
		return "", fmt.Errorf("failed to read volume label of %s: %w", path, err)
	}

	name, _ := db.LookupByLabel(label)
	return name, nil
}

// LookupByTreeinfo matches the family and version from a .treeinfo file.
func (db *DB) LookupByTreeinfo(family, version string) (string, bool) {
	for _, e := range db.entries {
		for _, t := range e.treeinfo {
			if t.family.MatchString(family) && t.version.MatchString(version) {
				return e.os.Name, true
			}
		}
	}
	return "", false
}

// LookupByDiskInfo matches the contents of a .disk/info or products file.
// Only the first non-empty line is considered.
func (db *DB) LookupByDiskInfo(text string) (string, bool) {
	line := firstLine(text)
	if line == "" {
		return "", false
	}
	for _, e := range db.entries {
		for _, re := range e.diskInfo {
			if re.MatchString(line) {
				return e.os.Name, true
			}
		}
	}
	return "", false
}

func firstLine(text string) string {
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	return ""
}
