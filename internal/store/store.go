// Package store recognises distribution install trees behind a fetcher and
// knows where each distribution keeps its kernel, initrd and boot ISO.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jbweber/virtinst/internal/fetch"
	"github.com/jbweber/virtinst/internal/media"
)

// ErrNoDistro is returned by Detect when no known tree layout matches.
var ErrNoDistro = errors.New("Could not find an installable distribution")

// OSLookup resolves distribution metadata to an OS database name.
// Satisfied by *osdb.DB.
type OSLookup interface {
	LookupByTreeinfo(family, version string) (string, bool)
	LookupByDiskInfo(text string) (string, bool)
}

// Store is a detected install tree.
type Store interface {
	// Name describes the tree layout, e.g. "Fedora 40 treeinfo".
	Name() string

	// AcquireBootISO downloads the tree's bootable ISO to the scratch dir.
	AcquireBootISO(ctx context.Context) (string, error)

	// AcquireKernel downloads the install kernel and initrd to the scratch
	// dir and returns them with extra kernel arguments the tree needs.
	AcquireKernel(ctx context.Context) (kernel, initrd, args string, err error)

	// OSInfo returns the OS database name, or "" when unknown.
	OSInfo() string
}

type detector struct {
	name   string
	detect func(ctx context.Context, f fetch.Fetcher, db OSLookup) (Store, bool)
}

// detectors are tried in order; the first match wins.
var detectors = []detector{
	{name: "treeinfo", detect: detectTreeinfo},
	{name: "suse", detect: detectSUSE},
	{name: "ubuntu", detect: detectUbuntu},
	{name: "debian", detect: detectDebian},
}

// Detect identifies the tree behind f. The fetcher must already be
// prepared. db may be nil, in which case OSInfo is always empty.
func Detect(ctx context.Context, f fetch.Fetcher, db OSLookup) (Store, error) {
	for _, d := range detectors {
		if s, ok := d.detect(ctx, f, db); ok {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w at '%s'", ErrNoDistro, f.Location())
}

// acquirePair downloads kernel and initrd, removing the kernel again if the
// initrd cannot be fetched.
func acquirePair(ctx context.Context, f fetch.Fetcher, kernelPath, initrdPath string) (string, string, error) {
	kernel, err := f.Acquire(ctx, kernelPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to acquire kernel %s: %w", kernelPath, err)
	}
	initrd, err := f.Acquire(ctx, initrdPath)
	if err != nil {
		removeQuietly(kernel)
		return "", "", fmt.Errorf("failed to acquire initrd %s: %w", initrdPath, err)
	}
	return kernel, initrd, nil
}

// repoArg returns key=location for trees fetched over the network, where
// the installer has to be told where to find its packages.
func repoArg(f fetch.Fetcher, key string) string {
	if !media.HasURLScheme(f.Location()) {
		return ""
	}
	return key + "=" + f.Location()
}

func lookupDiskInfo(ctx context.Context, f fetch.Fetcher, db OSLookup, paths ...string) string {
	if db == nil {
		return ""
	}
	for _, p := range paths {
		if !f.HasFile(ctx, p) {
			continue
		}
		data, err := f.ReadFile(ctx, p)
		if err != nil {
			continue
		}
		if name, ok := db.LookupByDiskInfo(string(data)); ok {
			return name
		}
	}
	return ""
}

func removeQuietly(path string) {
	_ = os.Remove(path)
}
