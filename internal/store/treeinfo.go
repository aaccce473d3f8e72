package store

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/jbweber/virtinst/internal/fetch"
)

const defaultArch = "x86_64"

// treeinfo is the metadata file of anaconda based trees.
type treeinfo struct {
	family  string
	version string
	arch    string
	images  map[string]string
}

func parseTreeinfo(data []byte) (*treeinfo, error) {
	cfg, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse treeinfo: %w", err)
	}

	ti := &treeinfo{images: map[string]string{}}

	// productmd 1.x writes [release] and [tree]; older trees only [general].
	if sec, err := cfg.GetSection("release"); err == nil {
		ti.family = sec.Key("name").String()
		ti.version = sec.Key("version").String()
	}
	if sec, err := cfg.GetSection("tree"); err == nil {
		ti.arch = sec.Key("arch").String()
	}
	if sec, err := cfg.GetSection("general"); err == nil {
		if ti.family == "" {
			ti.family = sec.Key("family").String()
		}
		if ti.version == "" {
			ti.version = sec.Key("version").String()
		}
		if ti.arch == "" {
			ti.arch = sec.Key("arch").String()
		}
	}
	if ti.arch == "" {
		ti.arch = defaultArch
	}
	if ti.family == "" {
		return nil, fmt.Errorf("treeinfo has no family")
	}

	if sec, err := cfg.GetSection("images-" + ti.arch); err == nil {
		for _, k := range sec.Keys() {
			ti.images[k.Name()] = k.String()
		}
	}

	return ti, nil
}

// image returns the path of an image kind ("kernel", "initrd", "boot.iso"),
// falling back to the conventional location.
func (ti *treeinfo) image(kind string) string {
	if p := ti.images[kind]; p != "" {
		return p
	}
	switch kind {
	case "kernel":
		return "images/pxeboot/vmlinuz"
	case "initrd":
		return "images/pxeboot/initrd.img"
	case "boot.iso":
		return "images/boot.iso"
	}
	return ""
}

type treeinfoStore struct {
	fetcher fetch.Fetcher
	info    *treeinfo
	osinfo  string
}

func detectTreeinfo(ctx context.Context, f fetch.Fetcher, db OSLookup) (Store, bool) {
	for _, name := range []string{".treeinfo", "treeinfo"} {
		if !f.HasFile(ctx, name) {
			continue
		}
		data, err := f.ReadFile(ctx, name)
		if err != nil {
			continue
		}
		ti, err := parseTreeinfo(data)
		if err != nil {
			continue
		}

		s := &treeinfoStore{fetcher: f, info: ti}
		if db != nil {
			s.osinfo, _ = db.LookupByTreeinfo(ti.family, ti.version)
		}
		return s, true
	}
	return nil, false
}

func (s *treeinfoStore) Name() string {
	return strings.TrimSpace(s.info.family+" "+s.info.version) + " treeinfo"
}

func (s *treeinfoStore) OSInfo() string {
	return s.osinfo
}

func (s *treeinfoStore) AcquireBootISO(ctx context.Context) (string, error) {
	iso := s.info.image("boot.iso")
	if !s.fetcher.HasFile(ctx, iso) {
		return "", fmt.Errorf("could not find boot.iso in %s tree", s.Name())
	}
	return s.fetcher.Acquire(ctx, iso)
}

func (s *treeinfoStore) AcquireKernel(ctx context.Context) (string, string, string, error) {
	kernel, initrd, err := acquirePair(ctx, s.fetcher, s.info.image("kernel"), s.info.image("initrd"))
	if err != nil {
		return "", "", "", err
	}
	return kernel, initrd, repoArg(s.fetcher, "inst.repo"), nil
}
