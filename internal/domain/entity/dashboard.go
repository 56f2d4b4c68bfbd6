package entity

import "time"

// Identity is the signed-in customer as seen by the identity provider.
// Email is the customer key used by every API call.
type Identity struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Subject string `json:"sub"`
}

// DashboardQuery descreve uma requisição de dados do dashboard.
type DashboardQuery struct {
	Start       time.Time
	End         time.Time
	Granularity Granularity
}

// CurrentMonthQuery returns the default dashboard range: first to last day of the
// month containing now.
func CurrentMonthQuery(now time.Time, g Granularity) DashboardQuery {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	last := first.AddDate(0, 1, -1)
	return DashboardQuery{Start: first, End: last, Granularity: g}
}

// DashboardView contém os dados agregados prontos para tabela/gráfico.
type DashboardView struct {
	Generation  uint64            `json:"generation"`
	Customer    string            `json:"customer"`
	Start       string            `json:"start"`
	End         string            `json:"end"`
	Granularity Granularity       `json:"period"`
	Usage       []EnrichedPoint   `json:"usage"`
	Costs       []AggregatedPoint `json:"costs"`
	Estimated   []string          `json:"estimated_months,omitempty"`
	Threshold   *float64          `json:"threshold"`
	Breaches    []UsageSample     `json:"breaches,omitempty"`
	TotalUsage  float64           `json:"total_usage"`
	TotalCost   float64           `json:"total_cost"`
	Warnings    []string          `json:"warnings,omitempty"`
	GeneratedAt time.Time         `json:"generated_at"`
}
