// Package analytics contém as funções puras de agregação por período e de
// recomendação de limite usadas pelo dashboard.
package analytics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/diillson/energy-usage-dashboard-go/internal/domain/entity"
)

// QuarterPolicy controls how calendar months map to quarter labels.
type QuarterPolicy int

const (
	// QuarterOneBased labels Jan-Mar as Q1 ... Oct-Dec as Q4.
	QuarterOneBased QuarterPolicy = iota
	// QuarterLegacy reproduces the labels of the first dashboard release:
	// ceil(zeroBasedMonth/3), so January is Q0 and April, July and October
	// fall into the previous quarter.
	QuarterLegacy
)

// Options ajusta o comportamento da agregação.
type Options struct {
	Quarters QuarterPolicy
}

// Option é uma opção funcional para Aggregate.
type Option func(*Options)

// WithQuarterPolicy define a política de rótulos trimestrais.
func WithQuarterPolicy(p QuarterPolicy) Option {
	return func(o *Options) {
		o.Quarters = p
	}
}

var dateLayouts = []string{entity.DateLayout, time.RFC3339, entity.MonthLayout}

func parseDate(value string) (time.Time, error) {
	var firstErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: %w", value, firstErr)
}

// bucketAccumulator groups values by key and remembers first-seen key order.
type bucketAccumulator struct {
	order []string
	sums  map[string]float64
}

func newBucketAccumulator() *bucketAccumulator {
	return &bucketAccumulator{sums: make(map[string]float64)}
}

func (b *bucketAccumulator) add(key string, value float64) {
	if _, ok := b.sums[key]; !ok {
		b.order = append(b.order, key)
	}
	b.sums[key] += value
}

func (b *bucketAccumulator) points() []entity.AggregatedPoint {
	out := make([]entity.AggregatedPoint, 0, len(b.order))
	for _, key := range b.order {
		out = append(out, entity.AggregatedPoint{PeriodKey: key, Value: b.sums[key]})
	}
	return out
}

// BucketKey returns the period key of t for granularity g.
func BucketKey(t time.Time, g entity.Granularity, policy QuarterPolicy) (string, error) {
	switch g {
	case entity.GranularityDaily:
		return t.Format(entity.DateLayout), nil
	case entity.GranularityWeekly:
		// Semana começa no domingo.
		sunday := t.AddDate(0, 0, -int(t.Weekday()))
		return sunday.Format(entity.DateLayout), nil
	case entity.GranularityMonthly:
		return t.Format(entity.MonthLayout), nil
	case entity.GranularityQuarterly:
		month0 := int(t.Month()) - 1
		quarter := month0/3 + 1
		if policy == QuarterLegacy {
			quarter = (month0 + 2) / 3
		}
		return "Q" + strconv.Itoa(quarter), nil
	case entity.GranularityYearly:
		return fmt.Sprintf("%04d", t.Year()), nil
	default:
		return "", fmt.Errorf("unsupported period %q", g)
	}
}

// Aggregate turns a flat series into period buckets. Daily is the identity
// transform. Buckets come out in first-seen order, not chronological order.
func Aggregate(samples []entity.Sample, g entity.Granularity, opts ...Option) ([]entity.AggregatedPoint, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}

	if g == entity.GranularityDaily {
		out := make([]entity.AggregatedPoint, len(samples))
		for i, s := range samples {
			out[i] = entity.AggregatedPoint{PeriodKey: s.Date, Value: s.Value}
		}
		return out, nil
	}

	acc := newBucketAccumulator()
	for _, s := range samples {
		t, err := parseDate(s.Date)
		if err != nil {
			return nil, err
		}
		key, err := BucketKey(t, g, o.Quarters)
		if err != nil {
			return nil, err
		}
		acc.add(key, s.Value)
	}
	return acc.points(), nil
}

// AggregateCosts agrega custos mensais. Para diário, semanal e mensal a série
// mensal é devolvida como está.
func AggregateCosts(costs []entity.CostSample, g entity.Granularity, opts ...Option) ([]entity.AggregatedPoint, error) {
	switch g {
	case entity.GranularityQuarterly, entity.GranularityYearly:
		samples := make([]entity.Sample, len(costs))
		for i, c := range costs {
			samples[i] = entity.Sample{Date: c.Month, Value: c.Cost}
		}
		return Aggregate(samples, g, opts...)
	default:
		out := make([]entity.AggregatedPoint, len(costs))
		for i, c := range costs {
			out[i] = entity.AggregatedPoint{PeriodKey: c.Month, Value: c.Cost}
		}
		return out, nil
	}
}

// Enrich attaches the mean of the result set and the current threshold to every
// point. A nil threshold means "no threshold set".
func Enrich(points []entity.AggregatedPoint, threshold *float64) []entity.EnrichedPoint {
	if len(points) == 0 {
		return []entity.EnrichedPoint{}
	}

	avg := Total(points) / float64(len(points))

	var broadcast *float64
	if threshold != nil {
		v := *threshold
		broadcast = &v
	}

	out := make([]entity.EnrichedPoint, len(points))
	for i, p := range points {
		out[i] = entity.EnrichedPoint{
			AggregatedPoint: p,
			Average:         avg,
			Threshold:       broadcast,
			AboveThreshold:  broadcast != nil && p.Value > *broadcast,
		}
	}
	return out
}

// Total soma os valores dos pontos.
func Total(points []entity.AggregatedPoint) float64 {
	total := 0.0
	for _, p := range points {
		total += p.Value
	}
	return total
}
