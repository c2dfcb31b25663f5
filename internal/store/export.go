package store

import (
	"io"
	"time"

	"github.com/gocarina/gocsv"

	"levercalc/internal/models"
)

type csvRow struct {
	ID               int64   `csv:"id"`
	CreatedAt        string  `csv:"created_at"`
	Position         string  `csv:"position"`
	EntryPrice       float64 `csv:"entry_price"`
	TargetPrice      float64 `csv:"target_price"`
	Leverage         int     `csv:"leverage"`
	CapitalUSD       float64 `csv:"capital_usd"`
	ExchangeRate     float64 `csv:"exchange_rate"`
	FeeRate          float64 `csv:"fee_rate"`
	LeveragedPercent float64 `csv:"leveraged_percent"`
	ProfitUSD        float64 `csv:"profit_usd"`
	ProfitKRW        float64 `csv:"profit_krw"`
	FinalCapitalUSD  float64 `csv:"final_capital_usd"`
	Note             string  `csv:"note"`
}

// ExportCSV writes calculations as CSV with a header row.
func ExportCSV(w io.Writer, calcs []models.Calculation) error {
	rows := make([]*csvRow, 0, len(calcs))
	for _, c := range calcs {
		rows = append(rows, &csvRow{
			ID:               c.ID,
			CreatedAt:        c.CreatedAt.UTC().Format(time.RFC3339),
			Position:         string(c.Input.Position),
			EntryPrice:       c.Input.EntryPrice,
			TargetPrice:      c.Input.TargetPrice,
			Leverage:         c.Input.Leverage,
			CapitalUSD:       c.Input.CapitalUSD,
			ExchangeRate:     c.Input.ExchangeRate,
			FeeRate:          c.Input.FeeRate,
			LeveragedPercent: c.Result.LeveragedPercent,
			ProfitUSD:        c.Result.ProfitUSD,
			ProfitKRW:        c.Result.ProfitKRW,
			FinalCapitalUSD:  c.Result.FinalCapitalUSD,
			Note:             c.Note,
		})
	}
	return gocsv.Marshal(rows, w)
}
