package entity

// SubscriptionStatus is the locally cached state of the alert subscription.
type SubscriptionStatus string

const (
	SubscriptionUnknown      SubscriptionStatus = "UNKNOWN"
	SubscriptionSubscribed   SubscriptionStatus = "SUBSCRIBED"
	SubscriptionUnsubscribed SubscriptionStatus = "UNSUBSCRIBED"
)

// SubscriptionState guarda o status e o identificador opaco devolvido pelo serviço
// de notificações (ARN da assinatura SNS no backend de referência).
type SubscriptionState struct {
	Status SubscriptionStatus `json:"status"`
	Handle string             `json:"handle,omitempty"`
}

// Subscribed é um atalho para Status == SubscriptionSubscribed.
func (s SubscriptionState) Subscribed() bool {
	return s.Status == SubscriptionSubscribed
}
