package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"path"
	"time"

	"github.com/jlaffaye/ftp"
)

const ftpDialTimeout = 30 * time.Second

type ftpBackend struct {
	location string
	base     *url.URL
	conn     *ftp.ServerConn
}

func newFTPBackend(location string) *ftpBackend {
	return &ftpBackend{location: location}
}

func (b *ftpBackend) prepare(ctx context.Context) error {
	u, err := url.Parse(b.location)
	if err != nil {
		return fmt.Errorf("invalid URL %s: %w", b.location, err)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("invalid URL %s: missing host", b.location)
	}

	addr := u.Host
	if u.Port() == "" {
		addr = net.JoinHostPort(u.Hostname(), "21")
	}

	conn, err := ftp.Dial(addr,
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(ftpDialTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	user, pass := "anonymous", "anonymous"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	if err := conn.Login(user, pass); err != nil {
		_ = conn.Quit()
		return fmt.Errorf("failed to log in to %s: %w", addr, err)
	}

	b.base = u
	b.conn = conn
	return nil
}

func (b *ftpBackend) cleanup() error {
	if b.conn == nil {
		return nil
	}
	err := b.conn.Quit()
	b.conn = nil
	return err
}

func (b *ftpBackend) filePath(name string) (string, error) {
	if b.conn == nil {
		return "", fmt.Errorf("location %s not prepared", b.location)
	}
	return path.Join("/", b.base.Path, name), nil
}

func (b *ftpBackend) exists(_ context.Context, name string) (bool, error) {
	p, err := b.filePath(name)
	if err != nil {
		return false, err
	}
	if _, err := b.conn.FileSize(p); err != nil {
		return false, nil
	}
	return true, nil
}

func (b *ftpBackend) open(_ context.Context, name string) (io.ReadCloser, int64, error) {
	p, err := b.filePath(name)
	if err != nil {
		return nil, 0, err
	}

	size, err := b.conn.FileSize(p)
	if err != nil {
		size = -1
	}

	resp, err := b.conn.Retr(p)
	if err != nil {
		return nil, 0, fmt.Errorf("RETR %s: %w", p, err)
	}
	return resp, size, nil
}
