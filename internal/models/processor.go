package models

// PaymentIntent is the processor's handle for a payment
type PaymentIntent struct {
	Id           string
	Status       string
	ClientSecret string
}

// Refund is the processor's handle for a refund
type Refund struct {
	Id              string
	PaymentIntentId string
	Status          string
}

// ProcessorEvent is a verified, provider-neutral webhook event
type ProcessorEvent struct {
	Id              string
	Type            string // e.g. "payment_intent.succeeded"
	PaymentIntentId string
	ObjectStatus    string // status field of the event's data object, if any
}

// PaymentStatus is the local purchase plus the processor's informational view
type PaymentStatus struct {
	Purchase        *Purchase
	ProcessorStatus string
}
