package download

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport writes payload and then returns err
type fakeTransport struct {
	payload []byte
	err     error
	calls   []string
}

func (f *fakeTransport) Fetch(_ context.Context, locator *url.URL, w io.Writer) error {
	f.calls = append(f.calls, locator.String())
	if len(f.payload) > 0 {
		if _, err := w.Write(f.payload); err != nil {
			return err
		}
	}
	return f.err
}

func TestFetcher_HTTPSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "uls-etl-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("zip bytes"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "aircr.zip")
	f := NewFetcher(5*time.Second, "uls-etl-test")

	used, err := f.Fetch(context.Background(), []string{server.URL + "/l_aircr.zip"}, dest)
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/l_aircr.zip", used)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "zip bytes", string(data))
}

func TestFetcher_FallsBackToNextLocator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	ftpFake := &fakeTransport{payload: []byte("from ftp")}
	var attempts []error
	f := NewFetcher(5*time.Second, "", WithTransport("ftp", ftpFake))

	dest := filepath.Join(t.TempDir(), "tower.zip")
	used, err := f.Fetch(context.Background(), []string{
		server.URL + "/r_tower.zip",
		"ftp://wirelessftp.example.org/pub/uls/complete/r_tower.zip",
	}, dest, func(_, _ string, err error) { attempts = append(attempts, err) })
	require.NoError(t, err)
	assert.Equal(t, "ftp://wirelessftp.example.org/pub/uls/complete/r_tower.zip", used)
	require.Len(t, attempts, 2)
	assert.ErrorIs(t, attempts[0], ErrSourceUnavailable)
	assert.NoError(t, attempts[1])

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "from ftp", string(data))
}

func TestFetcher_AllFail(t *testing.T) {
	partial := &fakeTransport{payload: []byte("half an archive"), err: errors.New("connection reset")}
	f := NewFetcher(time.Second, "", WithTransport("https", partial), WithTransport("ftp", partial))

	dest := filepath.Join(t.TempDir(), "aircr.zip")
	_, err := f.Fetch(context.Background(), []string{
		"https://data.example.org/l_aircr.zip",
		"ftp://ftp.example.org/l_aircr.zip",
	}, dest)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllSourcesFailed)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Len(t, partial.calls, 2)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "partial download must be removed")
}

func TestFetcher_UnsupportedScheme(t *testing.T) {
	f := NewFetcher(time.Second, "")
	dest := filepath.Join(t.TempDir(), "x.zip")

	_, err := f.Fetch(context.Background(), []string{"gopher://example.org/x.zip"}, dest)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllSourcesFailed)
	assert.Contains(t, err.Error(), "unsupported scheme")
}

func TestFetcher_EmptyLocatorList(t *testing.T) {
	f := NewFetcher(time.Second, "")
	_, err := f.Fetch(context.Background(), nil, filepath.Join(t.TempDir(), "x.zip"))
	assert.ErrorIs(t, err, ErrAllSourcesFailed)
}

func TestHTTPTransport_IdleTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("first chunk"))
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	u, err := url.Parse(server.URL)
	require.NoError(t, err)

	transport := NewHTTPTransport(100*time.Millisecond, "")
	err = transport.Fetch(context.Background(), u, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data received")
}

func TestFTPTarget(t *testing.T) {
	tests := []struct {
		name     string
		locator  string
		wantAddr string
		wantPath string
	}{
		{
			name:     "default port",
			locator:  "ftp://wirelessftp.fcc.gov/pub/uls/complete/l_aircr.zip",
			wantAddr: "wirelessftp.fcc.gov:21",
			wantPath: "pub/uls/complete/l_aircr.zip",
		},
		{
			name:     "explicit port",
			locator:  "ftp://127.0.0.1:2121/r_tower.zip",
			wantAddr: "127.0.0.1:2121",
			wantPath: "r_tower.zip",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.locator)
			require.NoError(t, err)
			addr, path := ftpTarget(u)
			assert.Equal(t, tt.wantAddr, addr)
			assert.Equal(t, tt.wantPath, path)
		})
	}
}
