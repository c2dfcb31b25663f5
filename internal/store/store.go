// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"levercalc/internal/calc"
	"levercalc/internal/models"
)

// HistoryStore defines the interface for calculation history persistence.
type HistoryStore interface {
	SaveCalculation(ctx context.Context, c *models.Calculation) error
	GetCalculations(ctx context.Context, filter HistoryFilter) ([]models.Calculation, error)
	GetCalculation(ctx context.Context, id int64) (*models.Calculation, error)
	DeleteCalculation(ctx context.Context, id int64) error
	ClearHistory(ctx context.Context) (int64, error)

	// Lifecycle
	Close() error
}

// HistoryFilter represents filters for querying calculations.
type HistoryFilter struct {
	Position calc.Position
	Since    time.Time
	Limit    int
}
