// Package settings persists the user preferences shared by the UI and orchestration sides.
package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"pdfsuite/internal/models"
)

// MaxRecentFiles caps the recent files list
const MaxRecentFiles = 10

// Settings is the persisted preference record
type Settings struct {
	OutputFolder         string   `json:"outputFolder"`
	OpenFolderAfterBatch bool     `json:"openFolderAfterBatch"`
	AppendTimestamp      bool     `json:"appendTimestamp"`
	RecentFiles          []string `json:"recentFiles"`
}

// Defaults returns the first-run settings for the given export folder
func Defaults(outputFolder string) Settings {
	return Settings{
		OutputFolder:         outputFolder,
		OpenFolderAfterBatch: true,
		AppendTimestamp:      false,
		RecentFiles:          []string{},
	}
}

// Patch is a partial update. Nil fields are left unchanged.
// An explicit JSON null or empty string for outputFolder resets it to the default.
type Patch struct {
	OutputFolder         *string   `json:"outputFolder,omitempty"`
	OpenFolderAfterBatch *bool     `json:"openFolderAfterBatch,omitempty"`
	AppendTimestamp      *bool     `json:"appendTimestamp,omitempty"`
	RecentFiles          *[]string `json:"recentFiles,omitempty"`
}

// UnmarshalJSON keeps the difference between an absent outputFolder and an explicit null
func (p *Patch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = Patch{}
	if v, ok := raw["outputFolder"]; ok {
		folder := ""
		if !isNull(v) {
			if err := json.Unmarshal(v, &folder); err != nil {
				return fmt.Errorf("outputFolder: %w", err)
			}
		}
		p.OutputFolder = &folder
	}
	if v, ok := raw["openFolderAfterBatch"]; ok && !isNull(v) {
		var b bool
		if err := json.Unmarshal(v, &b); err != nil {
			return fmt.Errorf("openFolderAfterBatch: %w", err)
		}
		p.OpenFolderAfterBatch = &b
	}
	if v, ok := raw["appendTimestamp"]; ok && !isNull(v) {
		var b bool
		if err := json.Unmarshal(v, &b); err != nil {
			return fmt.Errorf("appendTimestamp: %w", err)
		}
		p.AppendTimestamp = &b
	}
	if v, ok := raw["recentFiles"]; ok {
		list := []string{}
		if !isNull(v) {
			if err := json.Unmarshal(v, &list); err != nil {
				return fmt.Errorf("recentFiles: %w", err)
			}
		}
		p.RecentFiles = &list
	}
	return nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// Store reads and writes the settings file. Writes are serialized within the
// process only; concurrent processes follow last-write-wins.
type Store struct {
	mu       sync.Mutex
	path     string
	defaults Settings
	logger   zerolog.Logger
}

// NewStore creates a store backed by path, using outputFolder as the default export folder
func NewStore(path, outputFolder string, logger zerolog.Logger) *Store {
	return &Store{
		path:     path,
		defaults: Defaults(outputFolder),
		logger:   logger.With().Str("component", "settings").Logger(),
	}
}

// Path returns the settings file location
func (s *Store) Path() string {
	return s.path
}

// Defaults returns a copy of the default settings
func (s *Store) Defaults() Settings {
	return clone(s.defaults)
}

// Load returns the current settings, writing defaults on first run.
// A corrupt file yields defaults and is left untouched.
func (s *Store) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Merge overlays patch onto the current settings and persists the result
func (s *Store) Merge(patch Patch) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.merge(patch)
}

// Reset overwrites the settings file with defaults
func (s *Store) Reset() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	def := clone(s.defaults)
	return def, s.write(def)
}

// AddRecent moves path to the front of the recent files list
func (s *Store) AddRecent(path string) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load()
	if err != nil {
		return current, err
	}
	list := AddRecent(current.RecentFiles, path)
	return s.merge(Patch{RecentFiles: &list})
}

// ClearRecent empties the recent files list
func (s *Store) ClearRecent() (Settings, error) {
	empty := []string{}
	return s.Merge(Patch{RecentFiles: &empty})
}

func (s *Store) merge(patch Patch) (Settings, error) {
	current, err := s.load()
	if err != nil {
		return current, err
	}

	if patch.OutputFolder != nil {
		current.OutputFolder = strings.TrimSpace(*patch.OutputFolder)
	}
	if patch.OpenFolderAfterBatch != nil {
		current.OpenFolderAfterBatch = *patch.OpenFolderAfterBatch
	}
	if patch.AppendTimestamp != nil {
		current.AppendTimestamp = *patch.AppendTimestamp
	}
	if patch.RecentFiles != nil {
		current.RecentFiles = append([]string(nil), (*patch.RecentFiles)...)
	}

	current = s.normalize(current)
	if err := s.write(current); err != nil {
		return current, err
	}
	return current, nil
}

func (s *Store) load() (Settings, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		def := clone(s.defaults)
		if err := s.write(def); err != nil {
			return def, err
		}
		s.logger.Debug().Str("path", s.path).Msg("wrote default settings")
		return def, nil
	}
	if err != nil {
		return clone(s.defaults), models.IOFailure("failed to read settings", err)
	}

	parsed := clone(s.defaults)
	if err := json.Unmarshal(data, &parsed); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("settings file is corrupt, using defaults")
		return clone(s.defaults), nil
	}
	return s.normalize(parsed), nil
}

func (s *Store) write(st Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return models.IOFailure("failed to create settings directory", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return models.IOFailure("failed to encode settings", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return models.IOFailure("failed to write settings", err)
	}
	return nil
}

func (s *Store) normalize(st Settings) Settings {
	if strings.TrimSpace(st.OutputFolder) == "" {
		st.OutputFolder = s.defaults.OutputFolder
	}
	st.RecentFiles = dedupe(st.RecentFiles)
	return st
}

// AddRecent returns list with path at the front, without duplicates, capped at MaxRecentFiles
func AddRecent(list []string, path string) []string {
	out := make([]string, 0, len(list)+1)
	out = append(out, path)
	for _, p := range list {
		if p != path {
			out = append(out, p)
		}
	}
	if len(out) > MaxRecentFiles {
		out = out[:MaxRecentFiles]
	}
	return out
}

func dedupe(list []string) []string {
	out := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, p := range list {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
		if len(out) == MaxRecentFiles {
			break
		}
	}
	return out
}

func clone(st Settings) Settings {
	st.RecentFiles = append([]string{}, st.RecentFiles...)
	return st
}
