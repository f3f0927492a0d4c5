package model

import (
	"math"

	"github.com/nexgen-logistics/lanewatch/internal/domain"
)

const maxInsightSamples = 10

// CostFeatures and DelayFeatures are the fixed feature sets consumed by
// the predict endpoints.
var (
	CostFeatures      = []string{"distance_km", "order_value_inr"}
	DelayFeatures     = []string{"promised_delivery_days", "distance_km"}
	ClassifierBase    = []string{"distance_km", "total_cost_inr"}
	ClassifierTraffic = "traffic_delay_minutes"
)

// FitCostModel regresses total cost on distance and order value. Rows
// missing any of the three are dropped; with too few usable rows the nil
// sentinel is returned.
func FitCostModel(records []domain.EnrichedOrder, cfg domain.ModelConfig) (*Regressor, *FitSummary) {
	var rows [][]float64
	var y []float64
	for _, r := range records {
		if !r.TotalCostINR.Valid || !r.DistanceKM.Valid || !r.OrderValueINR.Valid {
			continue
		}
		rows = append(rows, []float64{r.DistanceKM.Value, r.OrderValueINR.Value})
		y = append(y, r.TotalCostINR.Value)
	}
	return fitRegressor(CostFeatures, rows, y, cfg)
}

// FitDelayModel regresses delay days on promised days and distance. Null
// distance is imputed to 0 so a sparse distance column does not shrink
// the training set.
func FitDelayModel(records []domain.EnrichedOrder, cfg domain.ModelConfig) (*Regressor, *FitSummary) {
	var rows [][]float64
	var y []float64
	for _, r := range records {
		if !r.DeliveryDelayDays.Valid || !r.PromisedDays.Valid {
			continue
		}
		rows = append(rows, []float64{r.PromisedDays.Value, r.DistanceKM.Float64(0)})
		y = append(y, r.DeliveryDelayDays.Value)
	}
	return fitRegressor(DelayFeatures, rows, y, cfg)
}

func fitRegressor(names []string, rows [][]float64, y []float64, cfg domain.ModelConfig) (*Regressor, *FitSummary) {
	p := len(names)
	if len(rows) < p+2 {
		return nil, nil
	}

	trainIdx, testIdx := splitRows(len(rows), cfg)
	trainRows, trainY := pick(rows, y, trainIdx)
	if len(trainRows) < p+1 {
		return nil, nil
	}

	intercept, coefs, ok := olsFit(trainRows, trainY)
	if !ok {
		return nil, nil
	}

	reg := &Regressor{
		Names:     names,
		Intercept: intercept,
		Coefs:     coefs,
		stds:      columnStds(trainRows, p),
	}

	summary := &FitSummary{
		Features:    names,
		RowsTrained: len(trainIdx),
		RowsHeldOut: len(testIdx),
		Importance:  reg.Importance(),
	}
	if len(testIdx) > 0 {
		sse := 0.0
		for _, i := range testIdx {
			pred := reg.Predict(rows[i])
			diff := pred - y[i]
			sse += diff * diff
			if len(summary.Samples) < maxInsightSamples {
				summary.Samples = append(summary.Samples, PredictionSample{Actual: y[i], Predicted: pred})
			}
		}
		summary.RMSE = domain.F(math.Sqrt(sse / float64(len(testIdx))))
	}
	return reg, summary
}

// FitDelayClassifier fits a logistic model of the delayed flag on
// distance and total cost, plus traffic delay when that column exists.
// A single-class target has nothing to separate and yields the sentinel.
func FitDelayClassifier(records []domain.EnrichedOrder, caps domain.Capabilities, cfg domain.ModelConfig) (*Classifier, *FitSummary) {
	names := append([]string(nil), ClassifierBase...)
	if caps.HasTrafficDelay {
		names = append(names, ClassifierTraffic)
	}

	var rows [][]float64
	var y []float64
	for _, r := range records {
		if !r.DistanceKM.Valid || !r.TotalCostINR.Valid {
			continue
		}
		row := []float64{r.DistanceKM.Value, r.TotalCostINR.Value}
		if caps.HasTrafficDelay {
			row = append(row, r.TrafficDelayMinutes.Float64(0))
		}
		rows = append(rows, row)
		y = append(y, float64(r.IsDelayed))
	}

	p := len(names)
	if len(rows) < p+2 {
		return nil, nil
	}

	trainIdx, testIdx := splitRows(len(rows), cfg)
	trainRows, trainY := pick(rows, y, trainIdx)

	ones := 0
	for _, v := range trainY {
		if v == 1 {
			ones++
		}
	}
	if ones == 0 || ones == len(trainY) {
		return nil, nil
	}

	clf := fitLogistic(names, trainRows, trainY)
	if clf == nil {
		return nil, nil
	}

	summary := &FitSummary{
		Features:    names,
		RowsTrained: len(trainIdx),
		RowsHeldOut: len(testIdx),
		Importance:  clf.Importance(),
	}
	if len(testIdx) > 0 {
		correct := 0
		for _, i := range testIdx {
			pred := clf.Predict(rows[i])
			if float64(pred) == y[i] {
				correct++
			}
			if len(summary.Samples) < maxInsightSamples {
				summary.Samples = append(summary.Samples, PredictionSample{Actual: y[i], Predicted: float64(pred)})
			}
		}
		summary.Accuracy = domain.F(float64(correct) / float64(len(testIdx)))
	}
	return clf, summary
}

// fitLogistic runs full-batch gradient descent on z-scored features and
// folds the standardization back into the stored coefficients so callers
// predict on raw feature values.
func fitLogistic(names []string, rows [][]float64, y []float64) *Classifier {
	n := len(rows)
	p := len(names)

	means := make([]float64, p)
	for _, row := range rows {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= float64(n)
	}
	stds := columnStds(rows, p)

	scaled := make([][]float64, n)
	for i, row := range rows {
		s := make([]float64, p)
		for j, v := range row {
			sd := stds[j]
			if sd == 0 {
				sd = 1
			}
			s[j] = (v - means[j]) / sd
		}
		scaled[i] = s
	}

	const (
		iterations = 500
		learnRate  = 0.1
	)

	w := make([]float64, p)
	b := 0.0
	for it := 0; it < iterations; it++ {
		gradW := make([]float64, p)
		gradB := 0.0
		for i, row := range scaled {
			z := b
			for j, v := range row {
				z += w[j] * v
			}
			resid := sigmoid(z) - y[i]
			for j, v := range row {
				gradW[j] += resid * v
			}
			gradB += resid
		}
		for j := range w {
			w[j] -= learnRate * gradW[j] / float64(n)
		}
		b -= learnRate * gradB / float64(n)
	}

	coefs := make([]float64, p)
	intercept := b
	for j := range w {
		sd := stds[j]
		if sd == 0 {
			sd = 1
		}
		coefs[j] = w[j] / sd
		intercept -= w[j] * means[j] / sd
	}

	return &Classifier{Names: names, Intercept: intercept, Coefs: coefs, stds: stds}
}

func pick(rows [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	outRows := make([][]float64, 0, len(idx))
	outY := make([]float64, 0, len(idx))
	for _, i := range idx {
		outRows = append(outRows, rows[i])
		outY = append(outY, y[i])
	}
	return outRows, outY
}
