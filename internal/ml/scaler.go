package ml

import "gonum.org/v1/gonum/stat"

// StandardScaler normalizes features to zero mean and unit variance.
// Constant features keep a standard deviation of 1 so scaling is a no-op.
type StandardScaler struct {
	Means []float64 `json:"means"`
	Stds  []float64 `json:"stds"`
}

// FitScaler computes column statistics over the given samples
func FitScaler(samples [][]float64) *StandardScaler {
	if len(samples) == 0 {
		return &StandardScaler{}
	}

	cols := len(samples[0])
	scaler := &StandardScaler{
		Means: make([]float64, cols),
		Stds:  make([]float64, cols),
	}

	column := make([]float64, len(samples))
	for c := 0; c < cols; c++ {
		for r, row := range samples {
			column[r] = row[c]
		}
		mean, std := stat.MeanStdDev(column, nil)
		if std == 0 || std != std { // zero or NaN for single-sample fits
			std = 1
		}
		scaler.Means[c] = mean
		scaler.Stds[c] = std
	}

	return scaler
}

// Transform scales a single sample in place-safe fashion
func (s *StandardScaler) Transform(sample []float64) []float64 {
	if len(s.Means) != len(sample) {
		return sample
	}
	scaled := make([]float64, len(sample))
	for i, v := range sample {
		scaled[i] = (v - s.Means[i]) / s.Stds[i]
	}
	return scaled
}

// TransformAll scales a batch of samples
func (s *StandardScaler) TransformAll(samples [][]float64) [][]float64 {
	scaled := make([][]float64, len(samples))
	for i, sample := range samples {
		scaled[i] = s.Transform(sample)
	}
	return scaled
}
