// Package install runs an Installation resource through the installer.
//
// This package ties the low-level pieces (installer, status, libvirt
// domain generation) together so that a command only has to load a
// resource and pick how far to take it:
//   - Validate: accept the location and classify the media
//   - Detect: identify the distribution on the media
//   - Prepare: fetch boot media and record where it ended up
//   - Define: define the install phase domain in libvirt
//
// Every step records its outcome on the resource status, so a failed run
// can still be printed with the reason attached.
//
// Error Handling:
//
// A step that fails releases whatever its session fetched or uploaded.
// A successful Prepare hands the session back to the caller, who decides
// whether to keep the prepared media or clean it up.
package install
