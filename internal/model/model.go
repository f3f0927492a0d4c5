// Package model fits the small predictive collaborators consumed by the
// pipeline: a cost regressor, a delay regressor, and a delay classifier.
// Fitting is deterministic for a given seed; insufficient data returns a
// nil model that every consumer must tolerate.
package model

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/nexgen-logistics/lanewatch/internal/domain"
)

// FeatureWeight is one feature's contribution weight.
type FeatureWeight struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// PredictionSample is one holdout row's actual vs predicted value.
type PredictionSample struct {
	Actual    float64 `json:"actual"`
	Predicted float64 `json:"predicted"`
}

// FitSummary is the serializable description of one fitted model.
type FitSummary struct {
	Features    []string           `json:"features"`
	RowsTrained int                `json:"rows_trained"`
	RowsHeldOut int                `json:"rows_held_out"`
	RMSE        domain.Float       `json:"rmse"`
	Accuracy    domain.Float       `json:"accuracy"`
	Importance  []FeatureWeight    `json:"importance"`
	Samples     []PredictionSample `json:"samples,omitempty"`
}

// Regressor is a fitted linear model.
type Regressor struct {
	Names     []string
	Intercept float64
	Coefs     []float64

	stds []float64
}

// Predict returns the regression estimate for one feature vector.
func (r *Regressor) Predict(features []float64) float64 {
	out := r.Intercept
	for i, c := range r.Coefs {
		if i < len(features) {
			out += c * features[i]
		}
	}
	return out
}

// Classifier is a fitted logistic model for the delayed/on-time label.
type Classifier struct {
	Names     []string
	Intercept float64
	Coefs     []float64

	stds []float64
}

// PredictProb returns the probability of the delayed class.
func (c *Classifier) PredictProb(features []float64) float64 {
	z := c.Intercept
	for i, w := range c.Coefs {
		if i < len(features) {
			z += w * features[i]
		}
	}
	return sigmoid(z)
}

// Predict returns 1 for delayed, 0 for on-time.
func (c *Classifier) Predict(features []float64) int {
	if c.PredictProb(features) >= 0.5 {
		return 1
	}
	return 0
}

// Importance returns feature weights sorted descending. A nil model or a
// degenerate fit yields an empty slice, never an error.
func (r *Regressor) Importance() []FeatureWeight {
	if r == nil {
		return []FeatureWeight{}
	}
	return importance(r.Names, r.Coefs, r.stds)
}

// Importance returns feature weights sorted descending; empty for nil.
func (c *Classifier) Importance() []FeatureWeight {
	if c == nil {
		return []FeatureWeight{}
	}
	return importance(c.Names, c.Coefs, c.stds)
}

// importance scales each coefficient by its feature's spread and
// normalizes the magnitudes to sum to 1.
func importance(names []string, coefs, stds []float64) []FeatureWeight {
	out := make([]FeatureWeight, 0, len(names))
	total := 0.0
	for i, name := range names {
		w := math.Abs(coefs[i])
		if i < len(stds) && stds[i] > 0 {
			w *= stds[i]
		}
		out = append(out, FeatureWeight{Feature: name, Importance: w})
		total += w
	}
	if total == 0 {
		return []FeatureWeight{}
	}
	for i := range out {
		out[i].Importance /= total
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Importance > out[j].Importance
	})
	return out
}

// splitRows shuffles row indices with the configured seed and carves off
// the holdout set.
func splitRows(n int, cfg domain.ModelConfig) (train, test []int) {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	testN := int(float64(n) * cfg.TestFraction)
	if testN >= n {
		testN = n - 1
	}
	if testN < 0 {
		testN = 0
	}
	return idx[testN:], idx[:testN]
}

// olsFit solves the least-squares problem with an intercept column via QR.
func olsFit(rows [][]float64, y []float64) (intercept float64, coefs []float64, ok bool) {
	n := len(rows)
	if n == 0 {
		return 0, nil, false
	}
	p := len(rows[0])

	x := mat.NewDense(n, p+1, nil)
	for i, row := range rows {
		x.Set(i, 0, 1)
		for j, v := range row {
			x.Set(i, j+1, v)
		}
	}
	yv := mat.NewDense(n, 1, y)

	var qr mat.QR
	qr.Factorize(x)
	beta := mat.NewDense(p+1, 1, nil)
	if err := qr.SolveTo(beta, false, yv); err != nil {
		return 0, nil, false
	}

	coefs = make([]float64, p)
	for j := 0; j < p; j++ {
		coefs[j] = beta.At(j+1, 0)
	}
	return beta.At(0, 0), coefs, true
}

func columnStds(rows [][]float64, p int) []float64 {
	stds := make([]float64, p)
	col := make([]float64, len(rows))
	for j := 0; j < p; j++ {
		for i, row := range rows {
			col[i] = row[j]
		}
		stds[j] = stat.StdDev(col, nil)
		if math.IsNaN(stds[j]) {
			stds[j] = 0
		}
	}
	return stds
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
