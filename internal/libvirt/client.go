package libvirt

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/digitalocean/go-libvirt"
	"github.com/digitalocean/go-libvirt/socket"
	"github.com/digitalocean/go-libvirt/socket/dialers"
)

const (
	// DefaultURI is used when no connection URI is given.
	DefaultURI = "qemu:///system"

	defaultSocket     = "/var/run/libvirt/libvirt-sock"
	defaultRemotePort = "16509"
	defaultTimeout    = 5 * time.Second
)

// Client wraps a go-libvirt connection and provides the queries the
// installer, network list and node device probe need.
type Client struct {
	libvirt *libvirt.Libvirt
	uri     string
	remote  bool
}

// target is the parsed form of a connection URI.
type target struct {
	dialer socket.Dialer
	// name is the URI handed to the daemon once the socket is open.
	name   string
	remote bool
	addr   string
}

// parseURI maps a libvirt connection URI onto a socket dialer.
//
// Supported forms:
//
//	qemu:///system, qemu:///session      local UNIX socket
//	qemu+unix:///system?socket=/path     local UNIX socket at path
//	qemu+tcp://host[:port]/system        remote TCP (default port 16509)
//	test:///default                      local UNIX socket
//
// A host without a transport, e.g. qemu://host/system, means TLS to
// libvirt. TLS is not supported and such URIs are rejected rather than
// dialed in the clear.
func parseURI(uri string, timeout time.Duration) (*target, error) {
	if uri == "" {
		uri = DefaultURI
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection URI %s: %w", uri, err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("connection URI %s has no scheme", uri)
	}

	driver, transport, _ := strings.Cut(u.Scheme, "+")
	// The daemon always sees the local form, e.g. qemu:///system.
	name := driver + "://" + u.Path

	switch {
	case transport == "" && u.Host == "", transport == "unix":
		sock := u.Query().Get("socket")
		if sock == "" {
			sock = defaultSocket
		}
		return &target{
			dialer: dialers.NewLocal(dialers.WithSocket(sock), dialers.WithLocalTimeout(timeout)),
			name:   name,
			addr:   sock,
		}, nil

	case transport == "" && u.Host != "", transport == "tls":
		return nil, fmt.Errorf("connection URI %s uses the TLS transport, which is not supported; use %s+tcp://%s%s",
			uri, driver, u.Host, u.Path)

	case transport == "tcp":
		host := u.Hostname()
		port := u.Port()
		if port == "" {
			port = defaultRemotePort
		}
		return &target{
			dialer: dialers.NewRemote(host, dialers.UsePort(port), dialers.WithRemoteTimeout(timeout)),
			name:   name,
			remote: true,
			addr:   net.JoinHostPort(host, port),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported transport %q in connection URI %s", transport, uri)
	}
}

// Connect opens a connection described by uri.
// It returns a Client that must be closed via Close() when done.
//
// If uri is empty, defaults to qemu:///system.
// If timeout is zero, defaults to 5 seconds.
func Connect(uri string, timeout time.Duration) (*Client, error) {
	if timeout == 0 {
		timeout = defaultTimeout
	}

	t, err := parseURI(uri, timeout)
	if err != nil {
		return nil, err
	}

	l := libvirt.NewWithDialer(t.dialer)
	if err := l.ConnectToURI(libvirt.ConnectURI(t.name)); err != nil {
		return nil, fmt.Errorf("failed to connect to libvirt at %s: %w", t.addr, err)
	}

	return &Client{libvirt: l, uri: t.name, remote: t.remote}, nil
}

// ConnectWithContext establishes a connection with context support for cancellation.
func ConnectWithContext(ctx context.Context, uri string, timeout time.Duration) (*Client, error) {
	type result struct {
		client *Client
		err    error
	}
	resultCh := make(chan result, 1)

	go func() {
		c, err := Connect(uri, timeout)
		resultCh <- result{client: c, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("connection cancelled: %w", ctx.Err())
	case res := <-resultCh:
		return res.client, res.err
	}
}

// Close closes the libvirt connection and releases resources.
// It is safe to call Close multiple times.
func (c *Client) Close() error {
	if c.libvirt == nil {
		return nil
	}

	if err := c.libvirt.Disconnect(); err != nil {
		return fmt.Errorf("failed to disconnect from libvirt: %w", err)
	}
	c.libvirt = nil

	return nil
}

// Libvirt returns the underlying go-libvirt client for direct API access.
// This should be used sparingly; prefer higher-level methods on Client.
func (c *Client) Libvirt() *libvirt.Libvirt {
	return c.libvirt
}

// URI returns the URI the daemon was asked to open.
func (c *Client) URI() string {
	return c.uri
}

// IsRemote reports whether the hypervisor runs on another host. Files in
// local paths are not visible to guests on a remote connection.
func (c *Client) IsRemote() bool {
	return c.remote
}

// Ping verifies the connection is still alive by calling a simple libvirt API.
func (c *Client) Ping() error {
	if c.libvirt == nil {
		return fmt.Errorf("client not connected")
	}

	_, err := c.libvirt.ConnectGetLibVersion()
	if err != nil {
		return fmt.Errorf("libvirt connection is dead: %w", err)
	}

	return nil
}
