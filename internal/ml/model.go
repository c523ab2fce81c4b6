package ml

import (
	"errors"
	"math/rand"
	"sort"
	"time"
)

// Family identifies the learning algorithm of a model
type Family string

const (
	FamilyLogistic     Family = "logistic"
	FamilyRandomForest Family = "random_forest"
)

// Training errors
var (
	ErrTooFewSamples = errors.New("ml: too few samples to train")
	ErrOneClass      = errors.New("ml: training data contains a single class")
	ErrUnknownFamily = errors.New("ml: unknown model family")
)

// MinTrainingSamples is the smallest dataset a model trains on
const MinTrainingSamples = 20

// Dataset pairs product snapshots with their high-risk labels
type Dataset struct {
	Snapshots []ProductSnapshot
	Labels    []int
}

// TrainConfig controls a training run
type TrainConfig struct {
	Family       Family
	Seed         int64
	TestFraction float64 // Defaults to 0.2
}

// Metrics holds holdout evaluation results
type Metrics struct {
	AUC          float64 `json:"auc"`
	Accuracy     float64 `json:"accuracy"`
	TrainSamples int     `json:"train_samples"`
	TestSamples  int     `json:"test_samples"`
}

// Model is a trained classifier bundled with its feature pipeline
type Model struct {
	Family    Family              `json:"family"`
	Features  *FeatureBuilder     `json:"features"`
	Scaler    *StandardScaler     `json:"scaler,omitempty"` // Logistic models only
	Logistic  *LogisticRegression `json:"logistic,omitempty"`
	Forest    *RandomForest       `json:"forest,omitempty"`
	Metrics   Metrics             `json:"metrics"`
	TrainedAt time.Time           `json:"trained_at"`
}

// Score returns the stockout probability for a product snapshot
func (m *Model) Score(s ProductSnapshot) float64 {
	vector := m.Features.Vector(s)
	switch m.Family {
	case FamilyLogistic:
		return m.Logistic.PredictProba(m.Scaler.Transform(vector))
	case FamilyRandomForest:
		return m.Forest.PredictProba(vector)
	default:
		return 0
	}
}

// Train fits a classifier of the requested family and evaluates it on a
// stratified holdout split
func Train(ds Dataset, cfg TrainConfig) (*Model, error) {
	if len(ds.Snapshots) < MinTrainingSamples || len(ds.Snapshots) != len(ds.Labels) {
		return nil, ErrTooFewSamples
	}
	if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
		cfg.TestFraction = 0.2
	}

	positives := 0
	for _, l := range ds.Labels {
		positives += l
	}
	if positives == 0 || positives == len(ds.Labels) {
		return nil, ErrOneClass
	}

	builder := FitFeatures(ds.Snapshots)
	matrix := builder.Matrix(ds.Snapshots)

	trainIdx, testIdx := stratifiedSplit(ds.Labels, cfg.TestFraction, cfg.Seed)

	trainX := pick(matrix, trainIdx)
	trainY := pickLabels(ds.Labels, trainIdx)
	testY := pickLabels(ds.Labels, testIdx)

	model := &Model{
		Family:    cfg.Family,
		Features:  builder,
		TrainedAt: time.Now().UTC(),
	}

	switch cfg.Family {
	case FamilyLogistic:
		model.Scaler = FitScaler(trainX)
		model.Logistic = TrainLogistic(model.Scaler.TransformAll(trainX), trainY)
	case FamilyRandomForest:
		model.Forest = TrainForest(trainX, trainY, cfg.Seed)
	default:
		return nil, ErrUnknownFamily
	}

	scores := make([]float64, len(testIdx))
	for i, idx := range testIdx {
		scores[i] = model.Score(ds.Snapshots[idx])
	}

	model.Metrics = Metrics{
		AUC:          ROCAUC(scores, testY),
		Accuracy:     Accuracy(scores, testY),
		TrainSamples: len(trainIdx),
		TestSamples:  len(testIdx),
	}

	return model, nil
}

// stratifiedSplit shuffles indices per class and carves off the test fraction
// from each, so the class balance survives the split
func stratifiedSplit(labels []int, testFraction float64, seed int64) (train, test []int) {
	rng := rand.New(rand.NewSource(seed))

	byClass := map[int][]int{}
	for i, l := range labels {
		byClass[l] = append(byClass[l], i)
	}

	// Walk the classes in a fixed order so the seed fully determines the
	// split; ranging over the map would leak iteration order into it.
	classes := make([]int, 0, len(byClass))
	for class := range byClass {
		classes = append(classes, class)
	}
	sort.Ints(classes)

	for _, class := range classes {
		indices := byClass[class]
		rng.Shuffle(len(indices), func(a, b int) {
			indices[a], indices[b] = indices[b], indices[a]
		})
		cut := int(float64(len(indices)) * testFraction)
		if cut == 0 && len(indices) > 1 {
			cut = 1
		}
		test = append(test, indices[:cut]...)
		train = append(train, indices[cut:]...)
	}
	return train, test
}

func pick(matrix [][]float64, indices []int) [][]float64 {
	out := make([][]float64, len(indices))
	for i, idx := range indices {
		out[i] = matrix[idx]
	}
	return out
}

func pickLabels(labels []int, indices []int) []int {
	out := make([]int, len(indices))
	for i, idx := range indices {
		out[i] = labels[idx]
	}
	return out
}
