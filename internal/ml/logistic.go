package ml

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Logistic regression hyperparameters
const (
	logisticLearningRate = 0.1
	logisticIterations   = 1000
	logisticL2           = 0.001
)

// LogisticRegression is a binary classifier trained with batch gradient
// descent on standardized features.
type LogisticRegression struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// TrainLogistic fits a logistic regression on the given samples.
// Samples are expected to be standardized; labels are 0 or 1.
func TrainLogistic(samples [][]float64, labels []int) *LogisticRegression {
	if len(samples) == 0 {
		return &LogisticRegression{}
	}

	rows := len(samples)
	cols := len(samples[0])

	x := mat.NewDense(rows, cols, nil)
	for r, sample := range samples {
		x.SetRow(r, sample)
	}
	y := mat.NewVecDense(rows, nil)
	for r, label := range labels {
		y.SetVec(r, float64(label))
	}

	weights := mat.NewVecDense(cols, nil)
	bias := 0.0

	preds := mat.NewVecDense(rows, nil)
	grad := mat.NewVecDense(cols, nil)
	residual := mat.NewVecDense(rows, nil)

	for iter := 0; iter < logisticIterations; iter++ {
		// preds = sigmoid(X*w + b)
		preds.MulVec(x, weights)
		for r := 0; r < rows; r++ {
			preds.SetVec(r, sigmoid(preds.AtVec(r)+bias))
		}

		// residual = preds - y
		residual.SubVec(preds, y)

		// grad = X^T * residual / n + l2 * w
		grad.MulVec(x.T(), residual)
		grad.ScaleVec(1/float64(rows), grad)
		grad.AddScaledVec(grad, logisticL2, weights)

		weights.AddScaledVec(weights, -logisticLearningRate, grad)
		bias -= logisticLearningRate * mat.Sum(residual) / float64(rows)
	}

	model := &LogisticRegression{
		Weights: make([]float64, cols),
		Bias:    bias,
	}
	copy(model.Weights, weights.RawVector().Data)
	return model
}

// PredictProba returns the probability of the positive class
func (m *LogisticRegression) PredictProba(sample []float64) float64 {
	z := m.Bias
	for i, w := range m.Weights {
		if i < len(sample) {
			z += w * sample[i]
		}
	}
	return sigmoid(z)
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
