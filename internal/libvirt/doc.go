// Package libvirt provides a client wrapper for interacting with libvirt.
//
// This package wraps github.com/digitalocean/go-libvirt to provide:
//   - Connection management by URI (local socket or remote TCP)
//   - Network and node device queries keyed by name
//   - Install phase domain XML generation
//
// Connection Management:
//
//	client, err := libvirt.Connect("qemu+tcp://hv1/system", 0)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	if client.IsRemote() {
//	    // local files must be uploaded before a guest can see them
//	}
//
// Consumer-Side Interfaces:
//
// This package does not define interfaces. Consumers define their own,
// specifying only the operations they need: internal/netlist and
// internal/nodedev use the name-keyed query methods on *Client, while
// internal/storage talks to *libvirt.Libvirt (from Client.Libvirt) directly.
package libvirt
