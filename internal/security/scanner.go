// Package security scans conversion inputs with a ClamAV daemon.
package security

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	clamd "github.com/dutchcoders/go-clamd"
	"github.com/rs/zerolog"
)

// DefaultAddress is the clamd TCP endpoint used when none is configured
const DefaultAddress = "tcp://localhost:3310"

type client interface {
	Ping() error
	ScanStream(r io.Reader, abort chan bool) (chan *clamd.ScanResult, error)
}

// Scanner provides virus scanning capabilities
type Scanner struct {
	enabled bool
	client  client
	logger  zerolog.Logger
}

// ScanResult contains the result of a virus scan
type ScanResult struct {
	Scanned  bool
	Infected bool
	Threats  []string
}

// NewScanner creates a scanner. It is disabled when scanning is off or the daemon is unreachable.
func NewScanner(enabled bool, clamdAddress string, logger zerolog.Logger) *Scanner {
	logger = logger.With().Str("component", "security").Logger()
	if !enabled {
		return &Scanner{logger: logger}
	}

	address := NormalizeAddress(clamdAddress)
	s := newWithClient(clamd.NewClamd(address), logger)
	if err := s.client.Ping(); err != nil {
		logger.Warn().Err(err).Str("address", address).Msg("ClamAV is not available, disabling virus scanning")
		return &Scanner{logger: logger}
	}
	logger.Info().Str("address", address).Msg("virus scanning enabled")
	return s
}

func newWithClient(c client, logger zerolog.Logger) *Scanner {
	return &Scanner{enabled: true, client: c, logger: logger}
}

// NormalizeAddress turns host:port into a tcp:// URL and keeps socket paths and URLs as they are
func NormalizeAddress(address string) string {
	address = strings.TrimSpace(address)
	switch {
	case address == "":
		return DefaultAddress
	case strings.Contains(address, "://"), filepath.IsAbs(address):
		return address
	}
	return "tcp://" + address
}

// IsEnabled returns whether the scanner is enabled
func (s *Scanner) IsEnabled() bool {
	return s != nil && s.enabled
}

// ScanFile scans a file for viruses
func (s *Scanner) ScanFile(filePath string) (*ScanResult, error) {
	if !s.IsEnabled() {
		return &ScanResult{Scanned: false}, nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file for scanning: %w", err)
	}
	defer file.Close()

	result, err := s.ScanReader(file)
	if err == nil && result.Infected {
		s.logger.Warn().Str("file", filePath).Strs("threats", result.Threats).Msg("infected input detected")
	}
	return result, err
}

// ScanBytes scans a byte slice for viruses
func (s *Scanner) ScanBytes(data []byte) (*ScanResult, error) {
	if !s.IsEnabled() {
		return &ScanResult{Scanned: false}, nil
	}
	return s.ScanReader(bytes.NewReader(data))
}

// ScanReader scans an io.Reader for viruses
func (s *Scanner) ScanReader(reader io.Reader) (*ScanResult, error) {
	if !s.IsEnabled() {
		return &ScanResult{Scanned: false}, nil
	}

	result := &ScanResult{
		Scanned: true,
		Threats: []string{},
	}

	scanResults, err := s.client.ScanStream(reader, make(chan bool))
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	for sr := range scanResults {
		switch sr.Status {
		case clamd.RES_FOUND:
			result.Infected = true
			result.Threats = append(result.Threats, sr.Description)
		case clamd.RES_ERROR, clamd.RES_PARSE_ERROR:
			return nil, fmt.Errorf("scan failed: %s", sr.Description)
		}
	}

	return result, nil
}
