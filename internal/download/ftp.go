package download

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
)

const (
	defaultFTPPort    = "21"
	anonymousUser     = "anonymous"
	anonymousPassword = "anonymous@"
)

// FTPTransport retrieves a file over an anonymous FTP session in binary mode
type FTPTransport struct {
	timeout time.Duration
}

// NewFTPTransport creates an FTP transport. The timeout bounds the dial and
// every read or write on the control and data connections.
func NewFTPTransport(timeout time.Duration) *FTPTransport {
	return &FTPTransport{timeout: timeout}
}

// Fetch implements Transport
func (t *FTPTransport) Fetch(ctx context.Context, locator *url.URL, w io.Writer) error {
	addr, path := ftpTarget(locator)
	if path == "" {
		return fmt.Errorf("no remote path in %s", locator.Redacted())
	}

	conn, err := ftp.Dial(addr,
		ftp.DialWithDialFunc(t.dialFunc(ctx)),
		ftp.DialWithShutTimeout(t.timeout),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	//nolint:errcheck // QUIT failure after a completed transfer is irrelevant
	defer conn.Quit()

	// Login switches the session to binary (TYPE I)
	if err := conn.Login(anonymousUser, anonymousPassword); err != nil {
		return fmt.Errorf("anonymous login to %s failed: %w", addr, err)
	}

	resp, err := conn.Retr(path)
	if err != nil {
		return fmt.Errorf("RETR %s failed: %w", path, err)
	}

	if _, err := io.CopyBuffer(w, resp, make([]byte, copyBufferSize)); err != nil {
		_ = resp.Close()
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	// Close reads the final transfer status; a 426 means the file is incomplete
	if err := resp.Close(); err != nil {
		return fmt.Errorf("transfer of %s did not complete: %w", path, err)
	}

	return nil
}

// dialFunc opens control and data connections that fail once the peer stays
// silent for longer than the transport timeout.
func (t *FTPTransport) dialFunc(ctx context.Context) func(network, address string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: t.timeout}
	return func(network, address string) (net.Conn, error) {
		conn, err := dialer.DialContext(ctx, network, address)
		if err != nil {
			return nil, err
		}
		return &idleConn{Conn: conn, timeout: t.timeout}, nil
	}
}

// idleConn pushes the connection deadline forward on every read and write
type idleConn struct {
	net.Conn
	timeout time.Duration
}

func (c *idleConn) Read(p []byte) (int, error) {
	if c.timeout > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Read(p)
}

func (c *idleConn) Write(p []byte) (int, error) {
	if c.timeout > 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Write(p)
}

// ftpTarget splits an ftp:// locator into a dial address and a remote path
// relative to the login directory.
func ftpTarget(locator *url.URL) (addr, path string) {
	addr = locator.Host
	if locator.Port() == "" {
		addr = net.JoinHostPort(locator.Hostname(), defaultFTPPort)
	}
	return addr, strings.TrimPrefix(locator.Path, "/")
}
