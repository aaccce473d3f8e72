package installer

import (
	"context"

	"github.com/jbweber/virtinst/internal/fetch"
	"github.com/jbweber/virtinst/internal/storage"
	"github.com/jbweber/virtinst/internal/store"
)

// FetcherFactory creates a fetcher for an install location.
//
// In production, this is fetch.New.
type FetcherFactory func(location, scratchDir string, meter fetch.Meter) fetch.Fetcher

// StoreDetector identifies the install tree behind a prepared fetcher.
//
// In production, this is store.Detect.
type StoreDetector func(ctx context.Context, f fetch.Fetcher, db store.OSLookup) (store.Store, error)

// InjectFunc appends files to an initrd.
//
// In production, this is initrd.Inject.
type InjectFunc func(initrd string, files []string, scratchDir string) error

// OSDatabase resolves install media to an OS name.
//
// In production, this is satisfied by *osdb.DB.
type OSDatabase interface {
	store.OSLookup

	// LookupByMedia returns the OS on the ISO or device at path, or "".
	LookupByMedia(path string) (string, error)
}

// Uploader makes a fetched kernel and initrd visible to the hypervisor.
//
// In production, this is satisfied by *storage.Manager.
type Uploader interface {
	// UploadKernelInitrd uploads the files, or returns them unchanged when
	// the hypervisor can read them in place.
	UploadKernelInitrd(ctx context.Context, req storage.UploadRequest) (*storage.UploadResult, error)

	// DeleteVolumes removes uploaded volumes, returning the failure count.
	DeleteVolumes(ctx context.Context, refs []storage.VolumeRef) int
}
