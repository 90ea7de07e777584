package metrics

import "math"

// QualityStats summarizes retrieval quality averaged across queries.
type QualityStats struct {
	PrecisionAt1  float64 `json:"precision_at_1"`
	PrecisionAt5  float64 `json:"precision_at_5"`
	PrecisionAt10 float64 `json:"precision_at_10"`
	RecallAt10    float64 `json:"recall_at_10"`
	MRR           float64 `json:"mrr"`
	NDCGAt10      float64 `json:"ndcg_at_10"`
}

// QualityMetrics evaluates ranked retrieval results against ground truth.
// predictions[i] is the ranked document IDs returned for query i and
// groundTruth[i] the set of relevant IDs for that query. The two slices are
// paired positionally and truncated to the shorter one. Returns zero-valued
// stats when no pairs remain.
func QualityMetrics(predictions [][]string, groundTruth [][]string) QualityStats {
	n := len(predictions)
	if len(groundTruth) < n {
		n = len(groundTruth)
	}
	if n == 0 {
		return QualityStats{}
	}

	var p1, p5, p10, r10, mrr, ndcg float64
	for i := 0; i < n; i++ {
		relevant := make(map[string]struct{}, len(groundTruth[i]))
		for _, id := range groundTruth[i] {
			relevant[id] = struct{}{}
		}

		p1 += precisionAt(predictions[i], relevant, 1)
		p5 += precisionAt(predictions[i], relevant, 5)
		p10 += precisionAt(predictions[i], relevant, 10)
		r10 += recallAt(predictions[i], relevant, 10)
		mrr += reciprocalRank(predictions[i], relevant)
		ndcg += ndcgAt(predictions[i], relevant, 10)
	}

	nf := float64(n)
	return QualityStats{
		PrecisionAt1:  p1 / nf,
		PrecisionAt5:  p5 / nf,
		PrecisionAt10: p10 / nf,
		RecallAt10:    r10 / nf,
		MRR:           mrr / nf,
		NDCGAt10:      ndcg / nf,
	}
}

// precisionAt divides by the requested k even when fewer results came back,
// so short result lists score lower instead of being normalized away.
func precisionAt(ranked []string, relevant map[string]struct{}, k int) float64 {
	if k <= 0 || len(ranked) == 0 || len(relevant) == 0 {
		return 0
	}
	top := k
	if top > len(ranked) {
		top = len(ranked)
	}
	hits := 0
	for _, id := range ranked[:top] {
		if _, ok := relevant[id]; ok {
			hits++
		}
	}
	return float64(hits) / float64(k)
}

func recallAt(ranked []string, relevant map[string]struct{}, k int) float64 {
	if len(relevant) == 0 {
		return 0
	}
	if k > len(ranked) {
		k = len(ranked)
	}
	hits := 0
	for _, id := range ranked[:k] {
		if _, ok := relevant[id]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(relevant))
}

// reciprocalRank is 1/rank of the first relevant result, 0 if none appears.
func reciprocalRank(ranked []string, relevant map[string]struct{}) float64 {
	for i, id := range ranked {
		if _, ok := relevant[id]; ok {
			return 1 / float64(i+1)
		}
	}
	return 0
}

// ndcgAt computes NDCG@k with binary relevance. The ideal DCG assumes all
// relevant documents ranked first.
func ndcgAt(ranked []string, relevant map[string]struct{}, k int) float64 {
	if len(relevant) == 0 {
		return 0
	}
	top := k
	if top > len(ranked) {
		top = len(ranked)
	}

	var dcg float64
	for i := 0; i < top; i++ {
		if _, ok := relevant[ranked[i]]; ok {
			dcg += 1 / math.Log2(float64(i)+2)
		}
	}

	ideal := len(relevant)
	if ideal > k {
		ideal = k
	}
	var idcg float64
	for i := 0; i < ideal; i++ {
		idcg += 1 / math.Log2(float64(i)+2)
	}
	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}
