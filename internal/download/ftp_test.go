package download

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ftpServer is a minimal passive-mode FTP server that serves one file.
// finalReply is sent on the control connection once the data connection closes.
type ftpServer struct {
	t          *testing.T
	listener   net.Listener
	payload    []byte
	finalReply string
}

func startFTPServer(t *testing.T, payload []byte, finalReply string) *ftpServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &ftpServer{t: t, listener: ln, payload: payload, finalReply: finalReply}
	t.Cleanup(func() { _ = ln.Close() })
	go s.serve()
	return s
}

func (s *ftpServer) locator(path string) *url.URL {
	return &url.URL{Scheme: "ftp", Host: s.listener.Addr().String(), Path: path}
}

func (s *ftpServer) serve() {
	conn, err := s.listener.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	data, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return
	}
	defer data.Close()

	r := bufio.NewReader(conn)
	reply := func(line string) { _, _ = fmt.Fprintf(conn, "%s\r\n", line) }

	reply("220 ready")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.ToUpper(strings.Fields(line)[0])
		switch cmd {
		case "USER":
			reply("331 password please")
		case "PASS":
			reply("230 logged in")
		case "TYPE":
			reply("200 binary")
		case "EPSV":
			reply(fmt.Sprintf("229 Entering Extended Passive Mode (|||%d|)", data.Addr().(*net.TCPAddr).Port))
		case "RETR":
			reply("150 opening data connection")
			dc, err := data.Accept()
			if err != nil {
				return
			}
			_, _ = dc.Write(s.payload)
			_ = dc.Close()
			reply(s.finalReply)
		case "QUIT":
			reply("221 bye")
			return
		default:
			reply("502 not implemented")
		}
	}
}

func TestFTPTransport_Fetch(t *testing.T) {
	server := startFTPServer(t, []byte("PK\x03\x04full archive"), "226 transfer complete")

	var buf bytes.Buffer
	err := NewFTPTransport(2*time.Second).Fetch(context.Background(), server.locator("/pub/l_aircr.zip"), &buf)
	require.NoError(t, err)
	assert.Equal(t, "PK\x03\x04full archive", buf.String())
}

func TestFTPTransport_AbortedTransfer(t *testing.T) {
	server := startFTPServer(t, []byte("PK\x03\x04half-an-archive"), "426 transfer aborted")

	var buf bytes.Buffer
	err := NewFTPTransport(2*time.Second).Fetch(context.Background(), server.locator("/pub/l_aircr.zip"), &buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not complete")
}

func TestFTPTransport_SilentServerTimesOut(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			// never greets
			accepted <- conn
		}
	}()
	defer func() {
		select {
		case conn := <-accepted:
			_ = conn.Close()
		default:
		}
	}()

	done := make(chan error, 1)
	go func() {
		locator := &url.URL{Scheme: "ftp", Host: ln.Addr().String(), Path: "/l_aircr.zip"}
		done <- NewFTPTransport(200*time.Millisecond).Fetch(context.Background(), locator, &bytes.Buffer{})
	}()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Fetch did not honour the session timeout")
	}
}

func TestFetcher_FTPAbortFallsBack(t *testing.T) {
	server := startFTPServer(t, []byte("PK\x03\x04half"), "426 transfer aborted")
	next := &fakeTransport{payload: []byte("complete")}

	f := NewFetcher(2*time.Second, "uls-etl-test", WithTransport("mock", next))
	dest := filepath.Join(t.TempDir(), "aircr.zip")

	used, err := f.Fetch(context.Background(), []string{
		server.locator("/l_aircr.zip").String(),
		"mock://mirror/l_aircr.zip",
	}, dest)
	require.NoError(t, err)
	assert.Equal(t, "mock://mirror/l_aircr.zip", used)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "complete", string(data))
}
