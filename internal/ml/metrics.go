package ml

import "sort"

// Accuracy returns the fraction of correct predictions at a 0.5 cutoff
func Accuracy(scores []float64, labels []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	correct := 0
	for i, score := range scores {
		pred := 0
		if score >= 0.5 {
			pred = 1
		}
		if pred == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(scores))
}

// ROCAUC computes the area under the ROC curve via the rank statistic,
// with midrank handling for tied scores. Returns 0.5 when one class is absent.
func ROCAUC(scores []float64, labels []int) float64 {
	n := len(scores)
	if n == 0 {
		return 0.5
	}

	positives := 0
	for _, l := range labels {
		positives += l
	}
	negatives := n - positives
	if positives == 0 || negatives == 0 {
		return 0.5
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return scores[order[a]] < scores[order[b]]
	})

	// Assign midranks to ties
	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && scores[order[j]] == scores[order[i]] {
			j++
		}
		midrank := float64(i+j+1) / 2 // ranks are 1-based
		for k := i; k < j; k++ {
			ranks[order[k]] = midrank
		}
		i = j
	}

	rankSum := 0.0
	for i, l := range labels {
		if l == 1 {
			rankSum += ranks[i]
		}
	}

	p := float64(positives)
	return (rankSum - p*(p+1)/2) / (p * float64(negatives))
}
