package calc

import (
	"fmt"

	"levercalc/internal/errors"
)

// MaxSweepSteps bounds the number of points in one sweep.
const MaxSweepSteps = 10000

// SweepPoint is one row of a sweep.
type SweepPoint struct {
	TargetPrice float64 `json:"target_price"`
	Result
}

// Sweep computes base at steps evenly spaced target prices from `from` to
// `to` inclusive. base.TargetPrice is ignored.
func Sweep(base Input, from, to float64, steps int) ([]SweepPoint, error) {
	if steps < 2 || steps > MaxSweepSteps {
		return nil, errors.NewRangeError("steps", steps, errors.RuleBounds,
			fmt.Sprintf("must be between 2 and %d", MaxSweepSteps))
	}
	if err := checkPositive("from", from); err != nil {
		return nil, err
	}
	if err := checkPositive("to", to); err != nil {
		return nil, err
	}
	if from == to {
		return nil, errors.NewRangeError("to", to, errors.RuleBounds, "must differ from the start price")
	}

	step := (to - from) / float64(steps-1)
	points := make([]SweepPoint, 0, steps)
	for i := 0; i < steps; i++ {
		in := base
		in.TargetPrice = from + step*float64(i)
		if i == steps-1 {
			in.TargetPrice = to
		}

		res, err := Compute(in)
		if err != nil {
			return nil, err
		}
		points = append(points, SweepPoint{TargetPrice: in.TargetPrice, Result: res})
	}
	return points, nil
}
