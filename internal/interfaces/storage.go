// Package interfaces defines service contracts for folio
package interfaces

import (
	"context"

	"github.com/bobmcallan/folio/internal/models"
)

// HoldingsStore persists the holdings document
type HoldingsStore interface {
	// Load returns the stored holdings, or empty holdings when none exist
	Load(ctx context.Context) (*models.Holdings, error)

	// Save replaces the stored holdings
	Save(ctx context.Context, h *models.Holdings) error

	// Path describes where the holdings live
	Path() string
}
