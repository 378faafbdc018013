package scoring

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// rootMeanSquareError returns the RMSE between predictions and values after
// converting both to float64.
func rootMeanSquareError(predictions, values []decimal.Decimal) (float64, error) {
	if len(predictions) == 0 || len(values) == 0 {
		return 0, ErrEmptyInput
	}
	if len(predictions) != len(values) {
		return 0, fmt.Errorf("%w: %d predictions for %d values", ErrLengthMismatch, len(predictions), len(values))
	}
	diffs := toFloats(predictions)
	floats.Sub(diffs, toFloats(values))
	return math.Sqrt(floats.Dot(diffs, diffs) / float64(len(diffs))), nil
}

// populationMeanStdDev returns the mean and the population standard
// deviation of the defined entries of vs. ok is false when none is defined.
func populationMeanStdDev(vs []Value) (mean, std float64, ok bool) {
	xs := defined(vs)
	if len(xs) == 0 {
		return 0, 0, false
	}
	mean, std = stat.PopMeanStdDev(xs, nil)
	return mean, std, true
}

func toFloats(ds []decimal.Decimal) []float64 {
	out := make([]float64, len(ds))
	for i, d := range ds {
		out[i] = d.InexactFloat64()
	}
	return out
}
