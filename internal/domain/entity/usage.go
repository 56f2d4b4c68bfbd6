package entity

import (
	"fmt"
	"strings"
)

// DateLayout é o formato de data usado pela API de consumo (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// MonthLayout é o formato de mês usado pela API de custos (YYYY-MM).
const MonthLayout = "2006-01"

// UsageSample represents a single day's energy usage as returned by the remote API.
type UsageSample struct {
	Date  string  `json:"date"`
	Usage float64 `json:"usage"`
}

// CostSample represents the cost for one calendar month.
type CostSample struct {
	Month     string  `json:"month"`
	Cost      float64 `json:"cost"`
	Estimated bool    `json:"estimated,omitempty"`
}

// Sample é a forma genérica consumida pelo agregador: uma data e um valor.
type Sample struct {
	Date  string
	Value float64
}

// UsageToSamples converte amostras de consumo para a forma genérica.
func UsageToSamples(usage []UsageSample) []Sample {
	samples := make([]Sample, len(usage))
	for i, u := range usage {
		samples[i] = Sample{Date: u.Date, Value: u.Usage}
	}
	return samples
}

// AggregatedPoint is one period bucket: the key and the sum of its samples.
type AggregatedPoint struct {
	PeriodKey string  `json:"period"`
	Value     float64 `json:"value"`
}

// EnrichedPoint adds chart overlay data to an AggregatedPoint.
type EnrichedPoint struct {
	AggregatedPoint
	Average        float64  `json:"average"`
	Threshold      *float64 `json:"threshold"`
	AboveThreshold bool     `json:"above_threshold"`
}

// Granularity is the bucketing period used by the aggregator.
type Granularity string

const (
	GranularityDaily     Granularity = "daily"
	GranularityWeekly    Granularity = "weekly"
	GranularityMonthly   Granularity = "monthly"
	GranularityQuarterly Granularity = "quarterly"
	GranularityYearly    Granularity = "yearly"
)

// Granularities lista os períodos suportados, na ordem exibida pela CLI.
var Granularities = []Granularity{
	GranularityDaily,
	GranularityWeekly,
	GranularityMonthly,
	GranularityQuarterly,
	GranularityYearly,
}

// ParseGranularity converte o nome de um período (case-insensitive).
func ParseGranularity(name string) (Granularity, error) {
	g := Granularity(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Granularities {
		if g == known {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown period %q (expected daily, weekly, monthly, quarterly or yearly)", name)
}
