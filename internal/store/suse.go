package store

import (
	"context"
	"fmt"

	"github.com/jbweber/virtinst/internal/fetch"
)

const (
	suseKernel = "boot/" + defaultArch + "/loader/linux"
	suseInitrd = "boot/" + defaultArch + "/loader/initrd"
)

type suseStore struct {
	fetcher fetch.Fetcher
	osinfo  string
}

func detectSUSE(ctx context.Context, f fetch.Fetcher, db OSLookup) (Store, bool) {
	if !f.HasFile(ctx, "content") && !f.HasFile(ctx, "media.1/products") {
		return nil, false
	}
	if !f.HasFile(ctx, suseKernel) {
		return nil, false
	}
	return &suseStore{
		fetcher: f,
		osinfo:  lookupDiskInfo(ctx, f, db, "media.1/products", "content"),
	}, true
}

func (s *suseStore) Name() string   { return "SUSE" }
func (s *suseStore) OSInfo() string { return s.osinfo }

func (s *suseStore) AcquireBootISO(_ context.Context) (string, error) {
	return "", fmt.Errorf("%s trees do not provide a boot ISO", s.Name())
}

func (s *suseStore) AcquireKernel(ctx context.Context) (string, string, string, error) {
	kernel, initrd, err := acquirePair(ctx, s.fetcher, suseKernel, suseInitrd)
	if err != nil {
		return "", "", "", err
	}
	return kernel, initrd, repoArg(s.fetcher, "install"), nil
}
