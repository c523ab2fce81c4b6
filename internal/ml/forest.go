package ml

import (
	"math"
	"math/rand"
)

// Random forest hyperparameters
const (
	forestTrees           = 100
	forestMaxDepth        = 10
	forestMinSamplesSplit = 2
)

// TreeNode is one node of a CART decision tree. Leaf nodes carry the
// positive-class probability of the training samples that reached them.
type TreeNode struct {
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *TreeNode `json:"left,omitempty"`
	Right     *TreeNode `json:"right,omitempty"`
	Leaf      bool      `json:"leaf,omitempty"`
	Prob      float64   `json:"prob"`
}

// RandomForest is an ensemble of CART trees grown on bootstrap samples
// with sqrt-feature subsampling at each split.
type RandomForest struct {
	Trees []*TreeNode `json:"trees"`
}

// TrainForest fits a random forest on the given samples with a fixed seed
// so training runs are reproducible.
func TrainForest(samples [][]float64, labels []int, seed int64) *RandomForest {
	if len(samples) == 0 {
		return &RandomForest{}
	}

	rng := rand.New(rand.NewSource(seed))
	cols := len(samples[0])
	featuresPerSplit := int(math.Sqrt(float64(cols)))
	if featuresPerSplit < 1 {
		featuresPerSplit = 1
	}

	forest := &RandomForest{Trees: make([]*TreeNode, forestTrees)}
	for t := 0; t < forestTrees; t++ {
		indices := bootstrap(len(samples), rng)
		forest.Trees[t] = growTree(samples, labels, indices, featuresPerSplit, 0, rng)
	}
	return forest
}

// PredictProba averages the leaf probabilities across all trees
func (f *RandomForest) PredictProba(sample []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	sum := 0.0
	for _, tree := range f.Trees {
		sum += tree.predict(sample)
	}
	return sum / float64(len(f.Trees))
}

// FeatureImportance counts how often each feature is used for a split,
// normalized to sum to 1
func (f *RandomForest) FeatureImportance(numFeatures int) []float64 {
	counts := make([]float64, numFeatures)
	total := 0.0
	for _, tree := range f.Trees {
		total += countSplits(tree, counts)
	}
	if total > 0 {
		for i := range counts {
			counts[i] /= total
		}
	}
	return counts
}

func countSplits(node *TreeNode, counts []float64) float64 {
	if node == nil || node.Leaf {
		return 0
	}
	total := 1.0
	if node.Feature < len(counts) {
		counts[node.Feature]++
	}
	total += countSplits(node.Left, counts)
	total += countSplits(node.Right, counts)
	return total
}

func (n *TreeNode) predict(sample []float64) float64 {
	node := n
	for !node.Leaf {
		if node.Feature < len(sample) && sample[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Prob
}

func bootstrap(n int, rng *rand.Rand) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = rng.Intn(n)
	}
	return indices
}

func growTree(samples [][]float64, labels []int, indices []int, featuresPerSplit, depth int, rng *rand.Rand) *TreeNode {
	positives := 0
	for _, idx := range indices {
		positives += labels[idx]
	}
	prob := float64(positives) / float64(len(indices))

	if depth >= forestMaxDepth || len(indices) < forestMinSamplesSplit || positives == 0 || positives == len(indices) {
		return &TreeNode{Leaf: true, Prob: prob}
	}

	feature, threshold, ok := bestSplit(samples, labels, indices, featuresPerSplit, rng)
	if !ok {
		return &TreeNode{Leaf: true, Prob: prob}
	}

	var left, right []int
	for _, idx := range indices {
		if samples[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &TreeNode{Leaf: true, Prob: prob}
	}

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      growTree(samples, labels, left, featuresPerSplit, depth+1, rng),
		Right:     growTree(samples, labels, right, featuresPerSplit, depth+1, rng),
	}
}

// bestSplit picks the gini-optimal split over a random feature subset,
// evaluating candidate thresholds at midpoints between sampled values
func bestSplit(samples [][]float64, labels []int, indices []int, featuresPerSplit int, rng *rand.Rand) (int, float64, bool) {
	cols := len(samples[0])
	features := rng.Perm(cols)[:featuresPerSplit]

	bestGini := math.Inf(1)
	bestFeature := -1
	bestThreshold := 0.0

	// Cap candidate thresholds per feature to keep splits near-linear
	candidates := indices
	if len(candidates) > 32 {
		candidates = make([]int, 32)
		for i := range candidates {
			candidates[i] = indices[rng.Intn(len(indices))]
		}
	}

	for _, feature := range features {
		for _, idx := range candidates {
			threshold := samples[idx][feature]

			leftPos, leftTotal, rightPos, rightTotal := 0, 0, 0, 0
			for _, j := range indices {
				if samples[j][feature] <= threshold {
					leftTotal++
					leftPos += labels[j]
				} else {
					rightTotal++
					rightPos += labels[j]
				}
			}
			if leftTotal == 0 || rightTotal == 0 {
				continue
			}

			gini := weightedGini(leftPos, leftTotal, rightPos, rightTotal)
			if gini < bestGini {
				bestGini = gini
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func weightedGini(leftPos, leftTotal, rightPos, rightTotal int) float64 {
	total := float64(leftTotal + rightTotal)
	return float64(leftTotal)/total*gini(leftPos, leftTotal) +
		float64(rightTotal)/total*gini(rightPos, rightTotal)
}

func gini(pos, total int) float64 {
	p := float64(pos) / float64(total)
	return 2 * p * (1 - p)
}
