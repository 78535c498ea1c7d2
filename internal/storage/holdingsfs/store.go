// Package holdingsfs implements file-based JSON storage for holdings.
package holdingsfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// HoldingsFile is the document name inside the data path.
const HoldingsFile = "holdings.json"

// Store provides file-based JSON storage for holdings and rendered artefacts.
type Store struct {
	basePath string
	logger   *common.Logger
}

// NewStore creates a new holdings file store rooted at path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create holdings store path %s: %w", path, err)
	}

	logger.Debug().Str("path", path).Msg("Holdings store opened")
	return &Store{
		basePath: path,
		logger:   logger,
	}, nil
}

// DataPath returns the base data path.
func (s *Store) DataPath() string {
	return s.basePath
}

// Path returns the holdings document path.
func (s *Store) Path() string {
	return filepath.Join(s.basePath, HoldingsFile)
}

// Load reads the holdings document. A missing file yields empty holdings
// and no error. An unparseable or invalid document yields empty holdings
// and an error wrapping models.ErrCorruptHoldings.
func (s *Store) Load(ctx context.Context) (*models.Holdings, error) {
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return models.NewHoldings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.Path(), err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return models.NewHoldings(), nil
	}

	h := models.NewHoldings()
	if err := json.Unmarshal(data, h); err != nil {
		return models.NewHoldings(), fmt.Errorf("%w: %s: %v", models.ErrCorruptHoldings, s.Path(), err)
	}
	return h, nil
}

// Save replaces the holdings document atomically.
func (s *Store) Save(ctx context.Context, h *models.Holdings) error {
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal holdings: %w", err)
	}
	if err := s.WriteRaw("", HoldingsFile, data); err != nil {
		return err
	}
	s.logger.Debug().Int("positions", h.Len()).Str("path", s.Path()).Msg("Holdings saved")
	return nil
}

// WriteRaw writes arbitrary binary data to a subdirectory atomically.
func (s *Store) WriteRaw(subdir, key string, data []byte) error {
	_, err := s.writeRaw(subdir, key, data)
	return err
}

// WriteChart stores a rendered chart under charts/ and returns its path.
func (s *Store) WriteChart(name string, png []byte) (string, error) {
	return s.writeRaw("charts", name, png)
}

func (s *Store) writeRaw(subdir, key string, data []byte) (string, error) {
	dir := filepath.Join(s.basePath, subdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	target := filepath.Join(dir, sanitizeKey(key))

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to rename temp file: %w", err)
	}
	return target, nil
}

// sanitizeKey keeps keys to a single path element.
func sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", "..", "_", ":", "_")
	return r.Replace(key)
}

// Ensure Store implements HoldingsStore
var _ interfaces.HoldingsStore = (*Store)(nil)
