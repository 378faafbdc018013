package scoring

import "github.com/shopspring/decimal"

// Prediction is the value a participant predicts for one asset. An invalid
// Value stands for a not-a-number submission.
type Prediction struct {
	Asset string              `json:"asset" yaml:"asset"`
	Value decimal.NullDecimal `json:"value" yaml:"value"`
}

// ValidatePrediction reports whether predictions cover every asset exactly
// once, name no other asset, and carry no missing value.
func ValidatePrediction(assets []string, predictions []Prediction) bool {
	required := make(map[string]struct{}, len(assets))
	for _, a := range assets {
		required[a] = struct{}{}
	}
	predicted := make(map[string]struct{}, len(predictions))
	for _, p := range predictions {
		if _, ok := required[p.Asset]; !ok {
			return false
		}
		predicted[p.Asset] = struct{}{}
	}
	if len(predicted) != len(required) {
		return false
	}
	// duplicates slip past the set comparison
	if len(assets) != len(predictions) {
		return false
	}
	for _, p := range predictions {
		if !p.Value.Valid {
			return false
		}
	}
	return true
}

// AlignPredictions orders the values of a valid prediction set like assets.
func AlignPredictions(assets []string, predictions []Prediction) []decimal.Decimal {
	byAsset := make(map[string]decimal.Decimal, len(predictions))
	for _, p := range predictions {
		byAsset[p.Asset] = p.Value.Decimal
	}
	out := make([]decimal.Decimal, len(assets))
	for i, a := range assets {
		out[i] = byAsset[a]
	}
	return out
}
