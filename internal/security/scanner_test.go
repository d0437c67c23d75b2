package security

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	clamd "github.com/dutchcoders/go-clamd"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	results []*clamd.ScanResult
	scanned []byte
}

func (f *fakeClient) Ping() error { return nil }

func (f *fakeClient) ScanStream(r io.Reader, _ chan bool) (chan *clamd.ScanResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.scanned = data
	ch := make(chan *clamd.ScanResult, len(f.results))
	for _, res := range f.results {
		ch <- res
	}
	close(ch)
	return ch, nil
}

func TestDisabledScannerSkips(t *testing.T) {
	s := NewScanner(false, "", zerolog.Nop())
	assert.False(t, s.IsEnabled())

	res, err := s.ScanBytes([]byte("anything"))
	require.NoError(t, err)
	assert.False(t, res.Scanned)

	var nilScanner *Scanner
	assert.False(t, nilScanner.IsEnabled())
}

func TestScanFileReportsThreats(t *testing.T) {
	fake := &fakeClient{results: []*clamd.ScanResult{
		{Status: clamd.RES_FOUND, Description: "Eicar-Test-Signature"},
	}}
	s := newWithClient(fake, zerolog.Nop())

	path := filepath.Join(t.TempDir(), "report.docx")
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o644))

	res, err := s.ScanFile(path)
	require.NoError(t, err)
	assert.True(t, res.Scanned)
	assert.True(t, res.Infected)
	assert.Equal(t, []string{"Eicar-Test-Signature"}, res.Threats)
	assert.Equal(t, "payload", string(fake.scanned))
}

func TestScanCleanInput(t *testing.T) {
	s := newWithClient(&fakeClient{results: []*clamd.ScanResult{{Status: clamd.RES_OK}}}, zerolog.Nop())
	res, err := s.ScanBytes([]byte("clean"))
	require.NoError(t, err)
	assert.False(t, res.Infected)
	assert.Empty(t, res.Threats)
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, DefaultAddress, NormalizeAddress(""))
	assert.Equal(t, "tcp://localhost:3310", NormalizeAddress("localhost:3310"))
	assert.Equal(t, "/var/run/clamav/clamd.ctl", NormalizeAddress("/var/run/clamav/clamd.ctl"))
	assert.Equal(t, "unix:///run/clamd.sock", NormalizeAddress("unix:///run/clamd.sock"))
}
