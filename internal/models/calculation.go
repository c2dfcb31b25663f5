// Package models defines the records persisted by the application.
package models

import (
	"time"

	"levercalc/internal/calc"
)

// Calculation is one saved computation.
type Calculation struct {
	ID        int64       `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	Input     calc.Input  `json:"input"`
	Result    calc.Result `json:"result"`
	Note      string      `json:"note,omitempty"`
}

// NewCalculation builds a record from an input and its result.
func NewCalculation(in calc.Input, res calc.Result, at time.Time, note string) *Calculation {
	return &Calculation{
		CreatedAt: at,
		Input:     in,
		Result:    res,
		Note:      note,
	}
}
