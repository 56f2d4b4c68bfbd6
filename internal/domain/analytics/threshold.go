package analytics

import (
	"math"

	"github.com/diillson/energy-usage-dashboard-go/internal/domain/entity"
)

// DefaultThreshold is suggested when there is no usage history yet.
const DefaultThreshold = 2

// RecommendationMargin é a margem aplicada sobre a média (20% acima).
const RecommendationMargin = 1.2

// Recommend returns round(mean(values) * 1.2), or DefaultThreshold for an empty
// series. Non-finite values are ignored in both the sum and the count.
func Recommend(values []float64) int {
	sum, n := 0.0, 0
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return DefaultThreshold
	}
	return int(math.Round(sum / float64(n) * RecommendationMargin))
}

// RecommendFromUsage extrai os valores de consumo e chama Recommend.
func RecommendFromUsage(history []entity.UsageSample) int {
	values := make([]float64, len(history))
	for i, h := range history {
		values[i] = h.Usage
	}
	return Recommend(values)
}

// Breaches returns the samples whose usage strictly exceeds threshold, in input order.
func Breaches(samples []entity.UsageSample, threshold float64) []entity.UsageSample {
	var out []entity.UsageSample
	for _, s := range samples {
		if s.Usage > threshold {
			out = append(out, s)
		}
	}
	return out
}
