package ml

// ClassMetrics holds the per-class evaluation breakdown.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Accuracy returns the fraction of predictions matching the true labels.
func Accuracy(yTrue, yPred []string) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue))
}

// ClassificationReport computes precision, recall, F1 and support for every
// class seen in either the true or predicted labels.
func ClassificationReport(yTrue, yPred []string) map[string]ClassMetrics {
	truePos := make(map[string]int)
	falsePos := make(map[string]int)
	falseNeg := make(map[string]int)
	support := make(map[string]int)

	for i := range yTrue {
		support[yTrue[i]]++
		if yTrue[i] == yPred[i] {
			truePos[yTrue[i]]++
		} else {
			falsePos[yPred[i]]++
			falseNeg[yTrue[i]]++
		}
	}

	classes := make(map[string]struct{})
	for _, label := range yTrue {
		classes[label] = struct{}{}
	}
	for _, label := range yPred {
		classes[label] = struct{}{}
	}

	report := make(map[string]ClassMetrics, len(classes))
	for label := range classes {
		tp := float64(truePos[label])
		fp := float64(falsePos[label])
		fn := float64(falseNeg[label])

		var precision, recall, f1 float64
		if tp+fp > 0 {
			precision = tp / (tp + fp)
		}
		if tp+fn > 0 {
			recall = tp / (tp + fn)
		}
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}

		report[label] = ClassMetrics{
			Precision: precision,
			Recall:    recall,
			F1:        f1,
			Support:   support[label],
		}
	}

	return report
}
