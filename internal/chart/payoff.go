// Package chart renders payoff curves to image files.
package chart

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"levercalc/internal/calc"
)

// RenderPayoff plots leveraged return against target price and saves it to
// path. The format follows the file extension (png, svg, pdf, ...).
func RenderPayoff(points []calc.SweepPoint, in calc.Input, path string) error {
	if len(points) < 2 {
		return fmt.Errorf("need at least 2 points to plot, got %d", len(points))
	}

	pts := make(plotter.XYs, len(points))
	minX, maxX := points[0].TargetPrice, points[0].TargetPrice
	minY, maxY := points[0].LeveragedPercent, points[0].LeveragedPercent
	for i, p := range points {
		pts[i].X = p.TargetPrice
		pts[i].Y = p.LeveragedPercent
		minX, maxX = min(minX, p.TargetPrice), max(maxX, p.TargetPrice)
		minY, maxY = min(minY, p.LeveragedPercent), max(maxY, p.LeveragedPercent)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s %dx from %.2f (fee %.4g%% per side)", in.Position, in.Leverage, in.EntryPrice, in.FeeRate*100)
	p.X.Label.Text = "Target price"
	p.Y.Label.Text = "Leveraged return (%)"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("creating payoff line: %w", err)
	}
	line.Color = color.RGBA{R: 0, G: 128, B: 255, A: 255}
	line.Width = vg.Points(2)

	zero, err := plotter.NewLine(plotter.XYs{{X: minX, Y: 0}, {X: maxX, Y: 0}})
	if err != nil {
		return fmt.Errorf("creating zero line: %w", err)
	}
	zero.Color = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	zero.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}

	entry, err := plotter.NewLine(plotter.XYs{{X: in.EntryPrice, Y: min(minY, 0)}, {X: in.EntryPrice, Y: max(maxY, 0)}})
	if err != nil {
		return fmt.Errorf("creating entry line: %w", err)
	}
	entry.Color = color.RGBA{R: 255, G: 0, B: 0, A: 160}
	entry.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}

	p.Add(line, zero, entry)
	p.Legend.Add("return", line)
	p.Legend.Add("entry", entry)
	p.Legend.Top = true

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving chart: %w", err)
	}
	return nil
}
